package vocabulary

import (
	"fmt"

	"github.com/cmass-sales/visitlog/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version            int               `toml:"version" yaml:"version"`
	SchoolAliases      map[string]string `toml:"school_aliases,omitempty" yaml:"school_aliases,omitempty"`
	CanonicalOverrides []string          `toml:"canonical_overrides,omitempty" yaml:"canonical_overrides,omitempty"`
	StaffAliases       map[string]string `toml:"staff_aliases,omitempty" yaml:"staff_aliases,omitempty"`
	StaffShortNames    []string          `toml:"staff_short_names,omitempty" yaml:"staff_short_names,omitempty"`
	AllowedSpeakers    []string          `toml:"allowed_speakers,omitempty" yaml:"allowed_speakers,omitempty"`
	SubjectKeywords    []string          `toml:"subject_keywords,omitempty" yaml:"subject_keywords,omitempty"`
	ActivityTags       []string          `toml:"activity_tags,omitempty" yaml:"activity_tags,omitempty"`
	TagSynonyms        []synonymSchema   `toml:"tag_synonyms,omitempty" yaml:"tag_synonyms,omitempty"`
}

type synonymSchema struct {
	Keyword string `toml:"keyword" yaml:"keyword"`
	Tag     string `toml:"tag" yaml:"tag"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported vocabulary schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

func (s fileSchema) toDomain() domain.Vocabulary {
	synonyms := make([]domain.TagSynonym, 0, len(s.TagSynonyms))
	for _, syn := range s.TagSynonyms {
		if syn.Keyword == "" || syn.Tag == "" {
			continue
		}
		synonyms = append(synonyms, domain.TagSynonym{Keyword: syn.Keyword, Tag: syn.Tag})
	}

	return domain.Vocabulary{
		SchoolAliases:      s.SchoolAliases,
		CanonicalOverrides: s.CanonicalOverrides,
		StaffAliases:       s.StaffAliases,
		StaffShortNames:    s.StaffShortNames,
		AllowedSpeakers:    s.AllowedSpeakers,
		SubjectKeywords:    s.SubjectKeywords,
		ActivityTags:       s.ActivityTags,
		TagSynonyms:        synonyms,
	}
}
