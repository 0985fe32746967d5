// Package localize implements the property-selection state machine:
// rewriting a tile's properties according to a language and worldview
// policy, pruning features that do not apply, promoting hidden "shadow"
// properties, and emitting one rewritten feature copy per applicable
// worldview.
package localize

import (
	"strings"

	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"

	"github.com/valpere/vtedit/pkg/tilecodec"
	"github.com/valpere/vtedit/pkg/vterr"
)

// Options configures one localize operation. Zero values are replaced by
// defaults in withDefaults.
type Options struct {
	HiddenPrefix      string
	OmitScripts       []string
	Languages         []string
	LanguageProperty  string
	Worldviews        []string
	WorldviewProperty string
	WorldviewDefault  string
	ClassProperty     string
	Compress          bool
	CompressionLevel  int

	MaxDecompressedSize int
}

func (o Options) withDefaults() Options {
	if o.HiddenPrefix == "" {
		o.HiddenPrefix = "_mbx_"
	}
	if o.LanguageProperty == "" {
		o.LanguageProperty = "name"
	}
	if o.WorldviewProperty == "" {
		o.WorldviewProperty = "worldview"
	}
	if o.WorldviewDefault == "" {
		o.WorldviewDefault = "US"
	}
	if o.ClassProperty == "" {
		o.ClassProperty = "class"
	}
	if o.CompressionLevel == 0 {
		o.CompressionLevel = tilecodec.DefaultCompressionLevel
	}
	if o.MaxDecompressedSize == 0 {
		o.MaxDecompressedSize = tilecodec.DefaultMaxDecompressedSize
	}
	return o
}

func isAllToken(values []string, token string) bool {
	for _, v := range values {
		if v == token {
			return true
		}
	}
	return false
}

// Localize rewrites data's properties per opts, returning the serialized
// (and optionally gzip-compressed) output tile.
func Localize(data []byte, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	layers, err := tilecodec.Unmarshal(data, opts.MaxDecompressedSize)
	if err != nil {
		if err == tilecodec.ErrOutputTooLarge {
			return nil, vterr.New(vterr.SizeLimit, "localize: decompressed tile exceeds size cap", err)
		}
		return nil, vterr.New(vterr.DecodeError, "localize: decoding tile", err)
	}

	localizedMode := len(opts.Languages) > 0 || len(opts.Worldviews) > 0
	allLanguages := len(opts.Languages) == 1 && opts.Languages[0] == "all"
	allWorldviews := len(opts.Worldviews) == 1 && opts.Worldviews[0] == "ALL"

	var out mvt.Layers
	for _, layer := range layers {
		dst := &mvt.Layer{Name: layer.Name, Version: layer.Version, Extent: layer.Extent}
		for _, feat := range layer.Features {
			emitted := processFeature(feat, opts, localizedMode, allLanguages, allWorldviews)
			dst.Features = append(dst.Features, emitted...)
		}
		out = append(out, dst)
	}

	buf, err := tilecodec.Marshal(out, opts.Compress, opts.CompressionLevel)
	if err != nil {
		return nil, vterr.New(vterr.Internal, "localize: serializing output tile", err)
	}
	return buf, nil
}

// processFeature runs the full per-feature policy: worldview bucket,
// class bucket, language bucket, hidden-prefix drop, and passthrough —
// then emits one feature copy per applicable worldview.
func processFeature(src *geojson.Feature, o Options, localizedMode, allLanguages, allWorldviews bool) []*geojson.Feature {
	props := src.Properties
	if props == nil {
		props = geojson.Properties{}
	}

	worldviews, hasWorldviewKey, survives := resolveWorldviews(props, o, localizedMode, allWorldviews)
	if !survives {
		return nil
	}

	result := baseProperties(props, o, localizedMode)

	if classValue, ok := resolveClass(props, o, localizedMode); ok {
		result[o.ClassProperty] = classValue
	}

	applyLanguages(result, props, o, localizedMode, allLanguages)

	if !hasWorldviewKey {
		if localizedMode {
			worldviews = []string{o.WorldviewDefault}
		} else {
			worldviews = nil
		}
	}

	if len(worldviews) == 0 {
		out := cloneFeature(src, result)
		return []*geojson.Feature{out}
	}

	emitted := make([]*geojson.Feature, 0, len(worldviews))
	for _, wv := range worldviews {
		props := make(geojson.Properties, len(result)+1)
		for k, v := range result {
			props[k] = v
		}
		props[o.WorldviewProperty] = wv
		out := cloneFeature(src, props)
		emitted = append(emitted, out)
	}
	return emitted
}

func cloneFeature(src *geojson.Feature, props geojson.Properties) *geojson.Feature {
	return &geojson.Feature{
		ID:         src.ID,
		Type:       src.Type,
		Geometry:   src.Geometry,
		Properties: props,
	}
}

// resolveWorldviews implements bucket 1 of the per-feature policy. It
// returns the worldviews the feature should be emitted under (nil meaning
// "no worldview key was present"), whether a worldview key was present at
// all, and whether the feature survives.
func resolveWorldviews(props geojson.Properties, o Options, localizedMode, allWorldviews bool) (worldviews []string, hasKey bool, survives bool) {
	plainKey := o.WorldviewProperty
	hiddenKey := o.HiddenPrefix + o.WorldviewProperty

	var compatibleKey, incompatibleKey string
	if localizedMode {
		compatibleKey, incompatibleKey = hiddenKey, plainKey
	} else {
		compatibleKey, incompatibleKey = plainKey, hiddenKey
	}

	if v, ok := props[incompatibleKey]; ok {
		s, isString := v.(string)
		if !isString || s != "all" {
			return nil, true, false
		}
	}

	v, ok := props[compatibleKey]
	if !ok {
		return nil, false, true
	}

	s, isString := v.(string)
	if !isString {
		return nil, true, false
	}

	if !localizedMode || allWorldviews {
		return []string{s}, true, true
	}

	values := strings.Split(s, ",")
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}

	if isAllToken(values, "all") {
		matched := append([]string(nil), o.Worldviews...)
		if len(matched) == 0 {
			return nil, true, false
		}
		return matched, true, true
	}

	var matched []string
	for _, requested := range o.Worldviews {
		if isAllToken(values, requested) {
			matched = append(matched, requested)
		}
	}
	if len(matched) == 0 {
		return nil, true, false
	}
	return matched, true, true
}

// resolveClass implements bucket 2.
func resolveClass(props geojson.Properties, o Options, localizedMode bool) (interface{}, bool) {
	precedence := []string{o.ClassProperty}
	if localizedMode {
		precedence = []string{o.HiddenPrefix + o.ClassProperty, o.ClassProperty}
	}
	for _, key := range precedence {
		if v, ok := props[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// baseProperties builds the bucket-5 ("all other keys") passthrough,
// excluding everything claimed by buckets 1-3 and everything dropped by
// bucket 4 (remaining hidden-prefixed keys). The language property itself
// (e.g. "name") is always claimed here; applyLanguages is responsible for
// writing its resolved value back into the result, in every mode.
func baseProperties(props geojson.Properties, o Options, localizedMode bool) geojson.Properties {
	claimed := map[string]bool{
		o.WorldviewProperty:                  true,
		o.HiddenPrefix + o.WorldviewProperty: true,
		o.ClassProperty:                      true,
		o.HiddenPrefix + o.ClassProperty:     true,
		o.LanguageProperty:                   true,
	}
	if localizedMode {
		claimed[o.LanguageProperty+"_local"] = true
	}
	for k := range props {
		if strings.HasPrefix(k, o.HiddenPrefix+o.LanguageProperty) {
			claimed[k] = true
		}
		if localizedMode && strings.HasPrefix(k, o.LanguageProperty+"_") {
			claimed[k] = true
		}
	}

	out := make(geojson.Properties, len(props))
	for k, v := range props {
		if claimed[k] {
			continue
		}
		if strings.HasPrefix(k, o.HiddenPrefix) {
			continue
		}
		out[k] = v
	}
	return out
}

// applyLanguages implements bucket 3, writing directly into result.
func applyLanguages(result geojson.Properties, props geojson.Properties, o Options, localizedMode, allLanguages bool) {
	langProp := o.LanguageProperty
	hiddenLangProp := o.HiddenPrefix + langProp

	original, hasOriginal := props[langProp].(string)

	if !localizedMode {
		if hasOriginal {
			result[langProp] = original
		}
		return
	}

	if allLanguages {
		for k, v := range props {
			clean := strings.TrimPrefix(k, o.HiddenPrefix)
			if !strings.HasPrefix(clean, langProp+"_") {
				continue
			}
			if strings.HasSuffix(clean, "_script") || strings.HasSuffix(clean, "_local") {
				continue
			}
			if hasOriginal {
				if s, ok := v.(string); ok && s == original {
					continue
				}
			}
			result[clean] = v
		}
		if hasOriginal {
			result[langProp] = original
		}
		return
	}

	var precedence []string
	for _, lang := range o.Languages {
		precedence = append(precedence, langProp+"_"+lang, hiddenLangProp+"_"+lang)
	}
	precedence = append(precedence, langProp)

	var selected string
	var haveSelected bool
	for _, key := range precedence {
		if v, ok := props[key]; ok {
			if s, ok := v.(string); ok {
				selected = s
				haveSelected = true
				break
			}
		}
	}
	if haveSelected {
		result[langProp] = selected
	}

	if hasOriginal {
		script, _ := props[hiddenLangProp+"_script"].(string)
		if script == "" {
			script, _ = props[langProp+"_script"].(string)
		}
		localValue := original
		if script != "" && contains(o.OmitScripts, script) {
			localValue = selected
		}
		result[langProp+"_local"] = localValue
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
