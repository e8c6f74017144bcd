package main

import (
	"fmt"
	"strconv"
	"strings"

	"GopherShade/internal/shading"
	"GopherShade/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"
)

var (
	shadeBase     string
	shadeNormal   string
	shadePos      string
	shadeCam      string
	shadeLightPos string
	shadeIa       string
	shadeId       string
	shadeIs       string
	shadeUnlit    bool
)

// shadeCmd evaluates a single fragment
var shadeCmd = &cobra.Command{
	Use:   "shade",
	Short: "Evaluate one fragment and print its RGBA color",
	Long: `Runs the lit or unlit fragment shader for one set of inputs. Vectors are
written as three comma separated numbers.

Example:
  gophershade shade --base 0.5,0.5,0.5 --normal 0,0,1 --pos 0,0,0 --cam 0,0,5`,
	Args: cobra.NoArgs,
	RunE: runShade,
}

func init() {
	light := shading.DefaultLight()
	shadeCmd.Flags().StringVar(&shadeBase, "base", "1,1,1", "Texture sample in display space")
	shadeCmd.Flags().StringVar(&shadeNormal, "normal", "0,0,1", "Surface normal")
	shadeCmd.Flags().StringVar(&shadePos, "pos", "0,0,0", "Fragment world position")
	shadeCmd.Flags().StringVar(&shadeCam, "cam", "0,0,5", "Camera position")
	shadeCmd.Flags().StringVar(&shadeLightPos, "light-pos", formatVec3(light.Position), "Light position")
	shadeCmd.Flags().StringVar(&shadeIa, "ia", formatVec3(light.Ia), "Ambient intensity")
	shadeCmd.Flags().StringVar(&shadeId, "id", formatVec3(light.Id), "Diffuse intensity")
	shadeCmd.Flags().StringVar(&shadeIs, "is", formatVec3(light.Is), "Specular intensity")
	shadeCmd.Flags().BoolVar(&shadeUnlit, "unlit", false, "Use the unlit shader")
}

func runShade(cmd *cobra.Command, args []string) error {
	var vecs [8]mgl32.Vec3
	inputs := []struct {
		flag  string
		value string
	}{
		{"base", shadeBase},
		{"normal", shadeNormal},
		{"pos", shadePos},
		{"cam", shadeCam},
		{"light-pos", shadeLightPos},
		{"ia", shadeIa},
		{"id", shadeId},
		{"is", shadeIs},
	}
	for i, in := range inputs {
		v, err := parseVec3(in.value)
		if err != nil {
			return fmt.Errorf("--%s: %w", in.flag, err)
		}
		vecs[i] = v
	}

	light := shading.Light{Position: vecs[4], Ia: vecs[5], Id: vecs[6], Is: vecs[7]}
	mode := shading.ModeLit
	if shadeUnlit {
		mode = shading.ModeUnlit
	}

	color := evaluate(mode, vecs[0], light, vecs[3], vecs[1], vecs[2])
	fmt.Fprintf(cmd.OutOrStdout(), "%s %.6f %.6f %.6f %.6f\n", mode, color[0], color[1], color[2], color[3])
	return nil
}

// evaluate runs the fragment shader for mode against a solid base color.
func evaluate(mode shading.Mode, base mgl32.Vec3, light shading.Light, camPos, normal, fragPos mgl32.Vec3) mgl32.Vec4 {
	u := shading.Uniforms{CamPos: camPos, Light: light, Texture: texture.NewSolid(base)}
	f := shading.Fragment{Normal: normal, Position: fragPos}
	return mode.Shader()(u, f)
}

// parseVec3 reads "x,y,z". Whitespace around components is ignored.
func parseVec3(s string) (mgl32.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var v mgl32.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return mgl32.Vec3{}, fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

func formatVec3(v mgl32.Vec3) string {
	return fmt.Sprintf("%g,%g,%g", v[0], v[1], v[2])
}
