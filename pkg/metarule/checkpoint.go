package metarule

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Checkpoint is the on-disk form of a Context's three vocabularies
// (spec.md §6, §7): three top-level sequences in id order starting at 1.
type Checkpoint struct {
	Words     []string `yaml:"words"`
	Variables []string `yaml:"variables"`
	Specials  []string `yaml:"specials"`
}

// Snapshot captures ctx's current vocabularies into a Checkpoint.
func Snapshot(ctx *Context) Checkpoint {
	return Checkpoint{
		Words:     ctx.Words.Snapshot(),
		Variables: ctx.Variables.Snapshot(),
		Specials:  ctx.Specials.Snapshot(),
	}
}

// SaveCheckpoint writes ctx's vocabularies to path as YAML.
func SaveCheckpoint(ctx *Context, path string) error {
	data, err := yaml.Marshal(Snapshot(ctx))
	if err != nil {
		return wrapInputContractError(err, "marshal checkpoint")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapInputContractError(err, "write checkpoint %q", path)
	}
	return nil
}

// LoadCheckpoint reads path and merges it into ctx's vocabularies. Per
// spec.md §5/§7, the checkpoint's entries must strictly extend whatever
// ctx already has interned as a prefix — loading never overwrites or
// renumbers an id already in use, it only refuses to proceed on conflict.
func LoadCheckpoint(ctx *Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return wrapInputContractError(err, "read checkpoint %q", path)
	}

	var cp Checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return wrapInputContractError(err, "parse checkpoint %q", path)
	}

	if err := ctx.Words.reset(cp.Words); err != nil {
		return err
	}
	if err := ctx.Variables.reset(cp.Variables); err != nil {
		return err
	}
	if err := ctx.Specials.reset(cp.Specials); err != nil {
		return err
	}
	return nil
}
