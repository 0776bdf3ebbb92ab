package nnet

import (
	"fmt"
	"strings"
)

// CanonicalName derives the architecture identifier from the configuration
// and resolved layer specs. It is a pure function: the same inputs always
// produce the same string, and it encodes every non default setting so two
// distinct architectures never share a name. Used for checkpoint addressing
// and experiment bookkeeping.
//
// Per layer tokens encode kernel, stride, dilation and pooling; image mode
// writes both axes per field, sequence mode a single value. When an explicit
// channel plan is set the per layer channel count follows each token,
// otherwise the base channel count is appended once after all tokens. For
// twelve or more layers the all ones stride/dilation/pool token is stripped
// as a literal substring to keep long homogeneous names short.
func CanonicalName(c Config, specs []LayerSpec) string {
	var sb strings.Builder
	for i, spec := range specs {
		if c.TS1D {
			fmt.Fprintf(&sb, "F%dS%dD%dMP%d", spec.Kernel.H, spec.Stride.H, spec.Dilation.H, spec.Pool.H)
		} else {
			fmt.Fprintf(&sb, "F%d%dS%d%dD%d%dMP%d%d",
				spec.Kernel.H, spec.Kernel.W, spec.Stride.H, spec.Stride.W,
				spec.Dilation.H, spec.Dilation.W, spec.Pool.H, spec.Pool.W)
		}
		if c.Channels != nil {
			fmt.Fprintf(&sb, "C%d", c.Channels[i])
		}
	}
	var arch string
	if c.TS1D {
		arch = fmt.Sprintf("TSD%dL%d%s", c.WindowSize, c.LayerNumber, sb.String())
	} else {
		arch = fmt.Sprintf("D%dL%d%s", c.WindowSize, c.LayerNumber, sb.String())
	}
	if c.Channels == nil {
		arch += fmt.Sprintf("C%d", c.Inplanes)
	}
	if c.LayerNumber >= 12 {
		arch = strings.ReplaceAll(arch, "S11D11MP11", "")
	}
	name := []string{arch}
	// sequence mode never appends the setting suffixes
	if !c.TS1D {
		if c.DropProb != 0.5 {
			name = append(name, fmt.Sprintf("DROPOUT%.2f", c.DropProb))
		}
		if !c.BatchNorm {
			name = append(name, "NoBN")
		}
		if !c.Xavier {
			name = append(name, "NoXavier")
		}
		if !c.LeakyRelu {
			name = append(name, "ReLU")
		}
		if c.BNLoc != BNBeforeRelu {
			name = append(name, c.BNLoc)
		}
		if c.Regression != "" {
			name = append(name, "reg_"+c.Regression)
		}
	}
	return strings.Join(name, "-")
}
