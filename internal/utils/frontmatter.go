package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DocumentMetadata is the frontmatter of a reference document file.
type DocumentMetadata struct {
	Title    string   `yaml:"title"`
	Slug     string   `yaml:"slug"`
	Category string   `yaml:"category"`
	Status   string   `yaml:"status"`
	Tags     []string `yaml:"tags"`
}

// ParseFrontmatter splits a file into its YAML frontmatter and body.
// A file without a leading "---" line has no metadata and is returned whole.
//
//	---
//	title: Møtereferat mars
//	tags: [styre, budsjett]
//	---
//	# Markdown content here
func ParseFrontmatter(content []byte) (*DocumentMetadata, string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return &DocumentMetadata{}, string(content), nil
	}

	lines := bytes.Split(content, []byte("\n"))
	closing := 0
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			closing = i
			break
		}
	}
	if closing == 0 {
		return nil, "", errors.New("missing closing frontmatter delimiter '---'")
	}

	var meta DocumentMetadata
	if err := yaml.Unmarshal(bytes.Join(lines[1:closing], []byte("\n")), &meta); err != nil {
		return nil, "", fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	tags := meta.Tags[:0]
	for _, tag := range meta.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	meta.Tags = tags

	body := string(bytes.Join(lines[closing+1:], []byte("\n")))
	return &meta, strings.TrimLeft(body, "\r\n"), nil
}
