package model

import (
	"sort"

	"gopkg.in/yaml.v2"
)

// MergeDescriptor records how far the commits of a counterpart source have been merged
type MergeDescriptor struct {
	LastMerged string `json:"last_merged,omitempty" yaml:"last_merged,omitempty"`
	_          struct{}
}

// MetaDescriptor is the merge metadata of a history, indexed by counterpart source name
type MetaDescriptor map[string]MergeDescriptor

// Counterparts lists the sources known to the metadata, sorted
func (m MetaDescriptor) Counterparts() []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// MarshalMeta serializes merge metadata as yaml
func MarshalMeta(m MetaDescriptor) ([]byte, error) {
	return yaml.Marshal(m)
}

// UnmarshalMeta reads merge metadata from yaml
func UnmarshalMeta(b []byte) (MetaDescriptor, error) {
	m := make(MetaDescriptor)
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
