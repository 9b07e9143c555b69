package seed

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresets []byte

// Preset sets the volume of generated data.
type Preset struct {
	Users               int     `yaml:"users"`
	PostsPerUser        int     `yaml:"posts_per_user"`
	FollowsPerUser      int     `yaml:"follows_per_user"`
	CommentsPerPost     int     `yaml:"comments_per_post"`
	ReplyRatio          float64 `yaml:"reply_ratio"`
	DeletedRatio        float64 `yaml:"deleted_ratio"`
	LikesPerPost        int     `yaml:"likes_per_post"`
	CommentLikesPerPost int     `yaml:"comment_likes_per_post"`
	MaxDays             int     `yaml:"max_days"`
}

// Validate rejects presets that cannot be generated.
func (p Preset) Validate() error {
	switch {
	case p.Users < 1:
		return fmt.Errorf("users must be at least 1")
	case p.PostsPerUser < 0, p.FollowsPerUser < 0, p.CommentsPerPost < 0,
		p.LikesPerPost < 0, p.CommentLikesPerPost < 0:
		return fmt.Errorf("counts must not be negative")
	case p.ReplyRatio < 0 || p.ReplyRatio > 1:
		return fmt.Errorf("reply_ratio must be within [0,1]")
	case p.DeletedRatio < 0 || p.DeletedRatio > 1:
		return fmt.Errorf("deleted_ratio must be within [0,1]")
	case p.MaxDays < 1:
		return fmt.Errorf("max_days must be at least 1")
	}
	return nil
}

func parsePresets(data []byte) (map[string]Preset, error) {
	presets := map[string]Preset{}
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for name, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return presets, nil
}

// BuiltinPreset returns one of the presets shipped with the binary.
func BuiltinPreset(name string) (Preset, error) {
	presets, err := parsePresets(builtinPresets)
	if err != nil {
		return Preset{}, err
	}
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %v)", name, presetNames(presets))
	}
	return p, nil
}

// LoadPreset reads a named preset from a YAML file with the same layout as
// the built-in presets.
func LoadPreset(path, name string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("read %s: %w", path, err)
	}
	presets, err := parsePresets(data)
	if err != nil {
		return Preset{}, err
	}
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("preset %q not found in %s (available: %v)", name, path, presetNames(presets))
	}
	return p, nil
}

func presetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
