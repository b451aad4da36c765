// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"

	"github.com/monobuild/monobuild/pkg/cueutil"
)

//go:embed descriptor_schema.cue
var descriptorSchema []byte

type (
	nativeDescriptor struct {
		Name      string       `json:"name" yaml:"name" hcl:"name"`
		Kind      string       `json:"kind" yaml:"kind" hcl:"kind"`
		DependsOn []string     `json:"depends_on,omitempty" yaml:"depends_on" hcl:"depends_on,optional"`
		Targets   []string     `json:"targets,omitempty" yaml:"targets" hcl:"targets,optional"`
		Image     *nativeImage `json:"image,omitempty" yaml:"image" hcl:"image,block"`
		Build     *nativeBuild `json:"build,omitempty" yaml:"build" hcl:"build,block"`
	}

	nativeImage struct {
		Dockerfile string            `json:"dockerfile,omitempty" yaml:"dockerfile" hcl:"dockerfile,optional"`
		Name       string            `json:"name,omitempty" yaml:"name" hcl:"name,optional"`
		BuildArgs  map[string]string `json:"build_args,omitempty" yaml:"build_args" hcl:"build_args,optional"`
	}

	nativeBuild struct {
		Script string `json:"script" yaml:"script" hcl:"script"`
	}
)

// DescriptorSchema returns the embedded CUE schema for monobuild.cue files.
func DescriptorSchema() []byte { return bytes.Clone(descriptorSchema) }

func parseCUE(pc ParseContext, data []byte) (*Spec, error) {
	res, err := cueutil.ParseAndDecode[nativeDescriptor](descriptorSchema, data, "#Package",
		cueutil.WithFilename(pc.Dir.Join(string(DescriptorCUE)).String()))
	if err != nil {
		return nil, err
	}
	return res.Value.toSpec(pc)
}

func parseYAML(pc ParseContext, data []byte) (*Spec, error) {
	var d nativeDescriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	return d.toSpec(pc)
}

func parseHCL(pc ParseContext, data []byte) (*Spec, error) {
	var d nativeDescriptor
	if err := hclsimple.Decode(string(DescriptorHCL), data, nil, &d); err != nil {
		return nil, err
	}
	return d.toSpec(pc)
}

// toSpec applies the checks the CUE schema performs for the formats that have no schema.
func (d *nativeDescriptor) toSpec(pc ParseContext) (*Spec, error) {
	if d.Name == "" {
		return nil, errors.New("name is required")
	}
	if d.Kind == "" {
		return nil, errors.New("kind is required")
	}
	kind, err := ParseKind(d.Kind)
	if err != nil {
		return nil, err
	}

	spec := &Spec{
		ID:           d.Name,
		Kind:         kind,
		Dependencies: d.DependsOn,
	}
	for _, raw := range d.Targets {
		t, err := ParseTarget(raw)
		if err != nil {
			return nil, err
		}
		spec.Targets = append(spec.Targets, t)
	}
	if d.Image != nil {
		if d.Image.Dockerfile != "" {
			df, err := packageRelative(pc.Dir, d.Image.Dockerfile)
			if err != nil {
				return nil, fmt.Errorf("image.dockerfile: %w", err)
			}
			spec.Image.Dockerfile = df
		}
		spec.Image.Name = d.Image.Name
		spec.Image.BuildArgs = d.Image.BuildArgs
	}
	if d.Build != nil {
		if d.Build.Script == "" {
			return nil, errors.New("build.script must not be empty")
		}
		spec.Script = d.Build.Script
	}
	return spec, nil
}
