package configfile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/kjk/configfile/variant"
	"github.com/tidwall/pretty"
	"github.com/toon-format/toon-go"
	"gopkg.in/yaml.v3"
)

// ToJSON returns c as a JSON object of section objects, preserving order.
// Fails on values JSON can't represent (inf, nan).
func (c *ConfigFile) ToJSON(indent bool) ([]byte, error) {
	buf := []byte{'{'}
	nSection := 0
	for name, sec := range c.sections().All() {
		if nSection > 0 {
			buf = append(buf, ',')
		}
		nSection++
		d, _ := json.Marshal(name)
		buf = append(buf, d...)
		buf = append(buf, ':', '{')
		nKey := 0
		for k, v := range sec.All() {
			if nKey > 0 {
				buf = append(buf, ',')
			}
			nKey++
			d, _ = json.Marshal(k)
			buf = append(buf, d...)
			buf = append(buf, ':')
			d, err := json.Marshal(v.Interface())
			if err != nil {
				return nil, fmt.Errorf("section '%s', key '%s': %w", name, k, err)
			}
			buf = append(buf, d...)
		}
		buf = append(buf, '}')
	}
	buf = append(buf, '}')
	if indent {
		buf = pretty.Pretty(buf)
	}
	return buf, nil
}

// ToTOON returns c in TOON format. Keys are sorted.
func (c *ConfigFile) ToTOON() ([]byte, error) {
	m := map[string]any{}
	for name, sec := range c.sections().All() {
		vals := map[string]any{}
		for k, v := range sec.All() {
			vals[k] = v.Interface()
		}
		m[name] = vals
	}
	return toon.Marshal(m)
}

func yamlScalar(tag, s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: s}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	return variant.Write(variant.NewFloat(f))
}

func yamlValue(v variant.Value) *yaml.Node {
	switch v.Kind() {
	case variant.Bool:
		b, _ := v.Bool()
		return yamlScalar("!!bool", strconv.FormatBool(b))
	case variant.Int:
		i, _ := v.Int()
		return yamlScalar("!!int", strconv.FormatInt(i, 10))
	case variant.Float:
		f, _ := v.Float()
		return yamlScalar("!!float", yamlFloat(f))
	case variant.String:
		s, _ := v.Str()
		return yamlScalar("!!str", s)
	case variant.Array:
		arr, _ := v.Array()
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, el := range arr {
			n.Content = append(n.Content, yamlValue(el))
		}
		return n
	case variant.Dict:
		entries, _ := v.Dict()
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, e := range entries {
			n.Content = append(n.Content, yamlScalar("!!str", variant.DictKeyString(e.Key)), yamlValue(e.Value))
		}
		return n
	}
	return yamlScalar("!!null", "null")
}

// ToYAML returns c as a YAML mapping of section mappings, preserving order
func (c *ConfigFile) ToYAML() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for name, sec := range c.sections().All() {
		secNode := &yaml.Node{Kind: yaml.MappingNode}
		for k, v := range sec.All() {
			secNode.Content = append(secNode.Content, yamlScalar("!!str", k), yamlValue(v))
		}
		root.Content = append(root.Content, yamlScalar("!!str", name), secNode)
	}
	return yaml.Marshal(root)
}
