package nnet

import (
	"encoding/gob"
	"fmt"
	"os"
	"path"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/qamq/2025cnnproj/num"
)

// State is a named snapshot of every parameter array in a network. Keys
// follow the per layer naming scheme conv_layers.<block>.<position>.<param>
// plus fc.weight and fc.bias for the output head.
type State map[string]*num.Array

func stateKey(block, pos int, param string) string {
	return fmt.Sprintf("conv_layers.%d.%d.%s", block, pos, param)
}

// State exports a deep copy of all parameters, including batch norm
// running statistics.
func (n *Network) State() State {
	s := State{}
	for i, block := range n.ConvLayers {
		for j, op := range block.Ops {
			p, ok := op.(ParamLayer)
			if !ok {
				continue
			}
			w, b := p.Params()
			s[stateKey(i, j, "weight")] = w.Clone()
			s[stateKey(i, j, "bias")] = b.Clone()
			if bn, ok := op.(*batchNorm); ok {
				s[stateKey(i, j, "running_mean")] = bn.runMean.Clone()
				s[stateKey(i, j, "running_var")] = bn.runVar.Clone()
			}
		}
	}
	w, b := n.fc.Params()
	s["fc.weight"] = w.Clone()
	s["fc.bias"] = b.Clone()
	return s
}

func (s State) get(key string) (*num.Array, error) {
	a, ok := s[key]
	if !ok {
		return nil, errors.Errorf("state: missing parameter %q", key)
	}
	return a, nil
}

// LoadState restores a complete parameter set saved from an architecture
// with identical specification. Every parameter the network owns must be
// present with a matching shape.
func (n *Network) LoadState(s State) error {
	klog.V(1).Infof("loading full model state for %s", n.Name)
	for i, block := range n.ConvLayers {
		for j, op := range block.Ops {
			p, ok := op.(ParamLayer)
			if !ok {
				continue
			}
			w, err := s.get(stateKey(i, j, "weight"))
			if err != nil {
				return err
			}
			b, err := s.get(stateKey(i, j, "bias"))
			if err != nil {
				return err
			}
			if err := p.SetParams(w, b); err != nil {
				return errors.Wrapf(err, "state: block %d op %d", i, j)
			}
			if bn, ok := op.(*batchNorm); ok {
				mean, err := s.get(stateKey(i, j, "running_mean"))
				if err != nil {
					return err
				}
				variance, err := s.get(stateKey(i, j, "running_var"))
				if err != nil {
					return err
				}
				if err := setParams(bn.runMean, mean, "batchNorm running_mean"); err != nil {
					return errors.Wrapf(err, "state: block %d op %d", i, j)
				}
				if err := setParams(bn.runVar, variance, "batchNorm running_var"); err != nil {
					return errors.Wrapf(err, "state: block %d op %d", i, j)
				}
			}
		}
	}
	w, err := s.get("fc.weight")
	if err != nil {
		return err
	}
	b, err := s.get("fc.bias")
	if err != nil {
		return err
	}
	return errors.Wrap(n.fc.SetParams(w, b), "state: fc")
}

// loadPartial warm starts the network by copying the weight and bias of the
// first two ops of every block except the last one, leaving the final block
// and the output head at their freshly initialized values.
func (n *Network) loadPartial(s State) error {
	for i := 0; i < len(n.ConvLayers)-1; i++ {
		klog.V(1).Infof("loading layer %d", i)
		for j := 0; j <= 1; j++ {
			op := n.ConvLayers[i].Ops[j]
			p, ok := op.(ParamLayer)
			if !ok {
				return errors.Errorf("state: block %d op %d (%s) has no parameters", i, j, op.ToString())
			}
			w, err := s.get(stateKey(i, j, "weight"))
			if err != nil {
				return err
			}
			b, err := s.get(stateKey(i, j, "bias"))
			if err != nil {
				return err
			}
			if err := p.SetParams(w, b); err != nil {
				return errors.Wrapf(err, "state: block %d op %d", i, j)
			}
		}
	}
	return nil
}

// SaveState encodes the snapshot in gob format to a file under DataDir.
// Snapshots are conventionally addressed by the canonical model name.
func SaveState(s State, name string) error {
	filePath := path.Join(DataDir, "."+name)
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	klog.Infof("saving model state to %s", name)
	if err = gob.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return err
	}
	f.Close()
	return os.Rename(filePath, path.Join(DataDir, name))
}

// LoadStateFile decodes a gob snapshot from a file under DataDir.
func LoadStateFile(name string) (State, error) {
	f, err := os.Open(path.Join(DataDir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	klog.Infof("loading model state from %s", name)
	var s State
	if err = gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, err
	}
	return s, nil
}
