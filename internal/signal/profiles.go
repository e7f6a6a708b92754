package signal

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Definition describes a strategy profile in data form, so custom
// profiles can be loaded from YAML alongside the built-ins.
type Definition struct {
	Name        string   `mapstructure:"name" yaml:"name"`
	Mode        string   `mapstructure:"mode" yaml:"mode"` // substring | whitelist | pattern | all_kill
	BuyToken    string   `mapstructure:"buy_token" yaml:"buy_token"`
	Opens       []string `mapstructure:"opens" yaml:"opens"`
	Adds        []string `mapstructure:"adds" yaml:"adds"`
	OpenTokens  []string `mapstructure:"open_tokens" yaml:"open_tokens"`
	AddTokens   []string `mapstructure:"add_tokens" yaml:"add_tokens"`
	LongTokens  []string `mapstructure:"long_tokens" yaml:"long_tokens"`
	ShortTokens []string `mapstructure:"short_tokens" yaml:"short_tokens"`
	ExitLong    []string `mapstructure:"exit_long" yaml:"exit_long"`
	ExitShort   []string `mapstructure:"exit_short" yaml:"exit_short"`
}

// Build compiles a definition into a Profile.
func Build(def Definition) (Profile, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, fmt.Errorf("profile requires a name")
	}
	switch strings.ToLower(strings.TrimSpace(def.Mode)) {
	case "substring":
		token := strings.TrimSpace(def.BuyToken)
		if token == "" {
			return nil, fmt.Errorf("profile %s: substring mode requires buy_token", name)
		}
		return &substringProfile{name: name, buyToken: token}, nil
	case "whitelist":
		if len(def.Opens) == 0 && len(def.Adds) == 0 {
			return nil, fmt.Errorf("profile %s: whitelist mode requires opens or adds", name)
		}
		return &whitelistProfile{name: name, opens: toSet(def.Opens), adds: toSet(def.Adds)}, nil
	case "pattern":
		return buildPatternProfile(name, def)
	case "all_kill":
		return buildAllKillProfile(name, def)
	default:
		return nil, fmt.Errorf("profile %s: unknown mode %q", name, def.Mode)
	}
}

// substringProfile marks any label containing the buy token as an
// opening entry; no side tracking.
type substringProfile struct {
	name     string
	buyToken string
}

func (p *substringProfile) Name() string { return p.name }

func (p *substringProfile) Normalize(label string) Normalized {
	if strings.Contains(label, p.buyToken) {
		return Normalized{Category: CategoryEntryOpen, Canonical: p.buyToken}
	}
	return Normalized{Category: CategoryIgnored}
}

// whitelistProfile recognizes only exact members of its label sets.
type whitelistProfile struct {
	name  string
	opens map[string]struct{}
	adds  map[string]struct{}
}

func (p *whitelistProfile) Name() string { return p.name }

func (p *whitelistProfile) Normalize(label string) Normalized {
	trimmed := strings.TrimSpace(label)
	if _, ok := p.opens[trimmed]; ok {
		return Normalized{Category: CategoryEntryOpen, Canonical: trimmed}
	}
	if _, ok := p.adds[trimmed]; ok {
		return Normalized{Category: CategoryAdd, Canonical: trimmed}
	}
	return Normalized{Category: CategoryIgnored}
}

// patternProfile applies a regexp alternation over the recognized
// tokens and takes the first match as the canonical signal.
type patternProfile struct {
	name   string
	re     *regexp.Regexp
	opens  map[string]struct{}
	adds   map[string]struct{}
	exitsL map[string]struct{}
	exitsS map[string]struct{}
	longs  []string
	shorts []string
}

func buildPatternProfile(name string, def Definition) (Profile, error) {
	tokens := make([]string, 0, len(def.OpenTokens)+len(def.AddTokens)+len(def.ExitLong)+len(def.ExitShort))
	tokens = append(tokens, def.OpenTokens...)
	tokens = append(tokens, def.AddTokens...)
	tokens = append(tokens, def.ExitLong...)
	tokens = append(tokens, def.ExitShort...)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("profile %s: pattern mode requires at least one token", name)
	}
	re, err := compileAlternation(tokens)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", name, err)
	}
	return &patternProfile{
		name:   name,
		re:     re,
		opens:  toSet(def.OpenTokens),
		adds:   toSet(def.AddTokens),
		exitsL: toSet(def.ExitLong),
		exitsS: toSet(def.ExitShort),
		longs:  def.LongTokens,
		shorts: def.ShortTokens,
	}, nil
}

func (p *patternProfile) Name() string { return p.name }

func (p *patternProfile) Normalize(label string) Normalized {
	canonical := p.re.FindString(label)
	if canonical == "" {
		return Normalized{Category: CategoryIgnored}
	}
	n := Normalized{Canonical: canonical, Side: sideOf(canonical, p.longs, p.shorts)}
	switch {
	case member(p.opens, canonical):
		n.Category = CategoryEntryOpen
	case member(p.adds, canonical):
		n.Category = CategoryAdd
	case member(p.exitsL, canonical):
		n.Category = CategoryExitLong
		n.Side = SideLong
	case member(p.exitsS, canonical):
		n.Category = CategoryExitShort
		n.Side = SideShort
	default:
		n.Category = CategoryIgnored
	}
	return n
}

// allKillProfile: entry iff the label contains a long-entry or
// short-entry marker, or an add-on marker combined with a side marker.
type allKillProfile struct {
	name   string
	opens  []string
	addons []string
	longs  []string
	shorts []string
}

func buildAllKillProfile(name string, def Definition) (Profile, error) {
	if len(def.OpenTokens) == 0 && len(def.AddTokens) == 0 {
		return nil, fmt.Errorf("profile %s: all_kill mode requires open_tokens or add_tokens", name)
	}
	return &allKillProfile{
		name:   name,
		opens:  def.OpenTokens,
		addons: def.AddTokens,
		longs:  def.LongTokens,
		shorts: def.ShortTokens,
	}, nil
}

func (p *allKillProfile) Name() string { return p.name }

func (p *allKillProfile) Normalize(label string) Normalized {
	for _, tok := range p.opens {
		if strings.Contains(label, tok) {
			return Normalized{Category: CategoryEntryOpen, Canonical: tok, Side: sideOf(tok, p.longs, p.shorts)}
		}
	}
	side := sideOf(label, p.longs, p.shorts)
	if side == SideNone {
		return Normalized{Category: CategoryIgnored}
	}
	for _, tok := range p.addons {
		if strings.Contains(label, tok) {
			return Normalized{Category: CategoryAdd, Canonical: tok, Side: side}
		}
	}
	return Normalized{Category: CategoryIgnored}
}

func compileAlternation(tokens []string) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			quoted = append(quoted, regexp.QuoteMeta(tok))
		}
	}
	if len(quoted) == 0 {
		return nil, fmt.Errorf("no usable tokens")
	}
	// Longer tokens first so "롱 청산" wins over "롱".
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return regexp.Compile(strings.Join(quoted, "|"))
}

func sideOf(s string, longs, shorts []string) Side {
	for _, tok := range longs {
		if tok != "" && strings.Contains(s, tok) {
			return SideLong
		}
	}
	for _, tok := range shorts {
		if tok != "" && strings.Contains(s, tok) {
			return SideShort
		}
	}
	return SideNone
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out[item] = struct{}{}
		}
	}
	return out
}

func member(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
