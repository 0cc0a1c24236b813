// Package secrets finds credentials in file content so they can be masked
// before a document leaves the machine.
package secrets

import (
	"fmt"
	"math"
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

type PatternConfig struct {
	Name     string
	Regex    string
	Severity string
}

type Config struct {
	EntropyThreshold float64
	MinTokenLength   int
	Patterns         []PatternConfig
}

// Finding is one detected secret. Start and End are byte offsets into the
// scanned content.
type Finding struct {
	Kind       string
	Severity   string
	Value      string
	Entropy    float64
	Confidence float64
	Line       int
	Column     int
	Start      int
	End        int
}

type compiledPattern struct {
	name     string
	severity string
	re       *regexp.Regexp
}

type Detector struct {
	entropyThreshold float64
	minTokenLength   int
	patterns         []compiledPattern
	contextVarRE     *regexp.Regexp
	quotedValueRE    *regexp.Regexp
	quotedTokenRE    *regexp.Regexp
}

// Bare high-entropy strings are only reported in configuration-like files.
var highRiskExtensions = map[string]bool{
	".env": true, ".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".ini": true, ".config": true, ".properties": true, ".xml": true, ".pem": true, ".key": true,
}

func NewDetector(cfg Config) (*Detector, error) {
	if cfg.EntropyThreshold <= 0 {
		cfg.EntropyThreshold = 4.0
	}
	if cfg.MinTokenLength <= 0 {
		cfg.MinTokenLength = 20
	}

	builtIn := []PatternConfig{
		{Name: "aws-access-key-id", Severity: "high", Regex: `\bAKIA[0-9A-Z]{16}\b`},
		{Name: "github-pat", Severity: "high", Regex: `\bghp_[A-Za-z0-9]{36}\b`},
		{Name: "github-fine-grained-pat", Severity: "high", Regex: `\bgithub_pat_[A-Za-z0-9_]{82}\b`},
		{Name: "stripe-live-secret", Severity: "high", Regex: `\bsk_live_[A-Za-z0-9]{16,}\b`},
		{Name: "slack-token", Severity: "high", Regex: `\bxox[baprs]-[A-Za-z0-9-]{10,}\b`},
		{Name: "azure-storage-key", Severity: "high", Regex: `AccountKey=[A-Za-z0-9+/=]{40,}`},
		{Name: "private-key-block", Severity: "critical", Regex: `-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`},
	}

	patterns, err := compilePatterns(append(builtIn, cfg.Patterns...))
	if err != nil {
		return nil, err
	}

	return &Detector{
		entropyThreshold: cfg.EntropyThreshold,
		minTokenLength:   cfg.MinTokenLength,
		patterns:         patterns,
		contextVarRE:     regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|api[_-]?key|token|auth[_-]?token|access[_-]?key|private[_-]?key|client[_-]?secret|connectionstring)\b`),
		quotedValueRE:    regexp.MustCompile(`"([^"\r\n]{4,})"|'([^'\r\n]{4,})'`),
		quotedTokenRE:    regexp.MustCompile(`"([A-Za-z0-9_\-+=:/.]{12,})"|'([A-Za-z0-9_\-+=:/.]{12,})'`),
	}, nil
}

// Detect returns the findings in content ordered by offset. filePath only
// decides whether bare high-entropy strings are considered.
func (d *Detector) Detect(filePath, content string) []Finding {
	if content == "" {
		return nil
	}

	index := buildLineIndex(content)
	findings := make(map[string]Finding)

	d.detectPatternMatches(content, index, findings)
	d.detectContextMatches(content, index, findings)
	if highRiskExtensions[strings.ToLower(path.Ext(filePath))] || strings.HasPrefix(path.Base(filePath), ".env") {
		d.detectEntropyMatches(content, index, findings)
	}

	if len(findings) == 0 {
		return nil
	}

	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		if out[i].End != out[j].End {
			return out[i].End > out[j].End
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Redact replaces every finding with a marker naming its kind. Overlapping
// findings collapse into the earliest, longest one.
func (d *Detector) Redact(filePath, content string) (string, []Finding) {
	findings := d.Detect(filePath, content)
	if len(findings) == 0 {
		return content, nil
	}

	var b strings.Builder
	b.Grow(len(content))
	applied := findings[:0]
	cursor := 0
	for _, f := range findings {
		if f.Start < cursor {
			continue
		}
		b.WriteString(content[cursor:f.Start])
		b.WriteString("[REDACTED " + f.Kind + "]")
		cursor = f.End
		applied = append(applied, f)
	}
	b.WriteString(content[cursor:])
	return b.String(), applied
}

func (d *Detector) detectPatternMatches(text string, index lineIndex, findings map[string]Finding) {
	for _, pattern := range d.patterns {
		for _, loc := range pattern.re.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			if shouldIgnoreCandidate(value) {
				continue
			}
			line, col := index.lineCol(loc[0])
			upsertFinding(findings, Finding{
				Kind:       pattern.name,
				Severity:   pattern.severity,
				Value:      value,
				Entropy:    shannonEntropy(value),
				Confidence: 0.99,
				Line:       line,
				Column:     col,
				Start:      loc[0],
				End:        loc[1],
			})
		}
	}
}

func (d *Detector) detectContextMatches(text string, index lineIndex, findings map[string]Finding) {
	offset := 0
	for _, line := range strings.Split(text, "\n") {
		if !d.contextVarRE.MatchString(line) {
			offset += len(line) + 1
			continue
		}
		for _, match := range d.quotedValueRE.FindAllStringSubmatchIndex(line, -1) {
			valueStart, valueEnd, ok := firstMatchedGroup(match)
			if !ok {
				continue
			}
			candidate := line[valueStart:valueEnd]
			if len(candidate) < d.minTokenLength || shouldIgnoreCandidate(candidate) {
				continue
			}
			entropy := shannonEntropy(candidate)
			if entropy < (d.entropyThreshold * 0.8) {
				continue
			}
			globalStart := offset + valueStart
			ln, col := index.lineCol(globalStart)
			confidence := 0.70
			if entropy >= d.entropyThreshold {
				confidence = 0.85
			}
			upsertFinding(findings, Finding{
				Kind:       "sensitive-assignment",
				Severity:   "medium",
				Value:      candidate,
				Entropy:    entropy,
				Confidence: confidence,
				Line:       ln,
				Column:     col,
				Start:      globalStart,
				End:        offset + valueEnd,
			})
		}
		offset += len(line) + 1
	}
}

func (d *Detector) detectEntropyMatches(text string, index lineIndex, findings map[string]Finding) {
	for _, match := range d.quotedTokenRE.FindAllStringSubmatchIndex(text, -1) {
		valueStart, valueEnd, ok := firstMatchedGroup(match)
		if !ok {
			continue
		}
		candidate := text[valueStart:valueEnd]
		if len(candidate) < d.minTokenLength || shouldIgnoreCandidate(candidate) {
			continue
		}
		if !containsLetterAndDigit(candidate) {
			continue
		}
		entropy := shannonEntropy(candidate)
		if entropy < d.entropyThreshold {
			continue
		}
		line, col := index.lineCol(valueStart)
		upsertFinding(findings, Finding{
			Kind:       "high-entropy-string",
			Severity:   "low",
			Value:      candidate,
			Entropy:    entropy,
			Confidence: 0.6,
			Line:       line,
			Column:     col,
			Start:      valueStart,
			End:        valueEnd,
		})
	}
}

func compilePatterns(cfg []PatternConfig) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(cfg))
	for _, pattern := range cfg {
		name := strings.TrimSpace(pattern.Name)
		if name == "" {
			return nil, fmt.Errorf("secret pattern name must not be empty")
		}
		expr := strings.TrimSpace(pattern.Regex)
		if expr == "" {
			return nil, fmt.Errorf("secret pattern %q regex must not be empty", name)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile secret pattern %q: %w", name, err)
		}
		severity := strings.ToLower(strings.TrimSpace(pattern.Severity))
		if severity == "" {
			severity = "medium"
		}
		compiled = append(compiled, compiledPattern{name: name, severity: severity, re: re})
	}
	return compiled, nil
}

// upsertFinding keeps the most confident finding per span.
func upsertFinding(findings map[string]Finding, candidate Finding) {
	key := fmt.Sprintf("%d:%d", candidate.Start, candidate.End)
	if existing, ok := findings[key]; ok && existing.Confidence >= candidate.Confidence {
		return
	}
	findings[key] = candidate
}

func containsLetterAndDigit(value string) bool {
	hasLetter := false
	hasDigit := false
	for _, r := range value {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			return true
		}
	}
	return false
}

func shouldIgnoreCandidate(value string) bool {
	lower := strings.ToLower(value)
	for _, blocked := range []string{"example", "sample", "dummy", "placeholder", "changeme", "notasecret", "test"} {
		if strings.Contains(lower, blocked) {
			return true
		}
	}
	return false
}

func shannonEntropy(value string) float64 {
	if value == "" {
		return 0
	}
	freq := make(map[rune]float64)
	for _, r := range value {
		freq[r]++
	}
	length := float64(len([]rune(value)))
	entropy := 0.0
	for _, count := range freq {
		p := count / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

type lineIndex struct {
	starts []int
}

func buildLineIndex(content string) lineIndex {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts}
}

func (i lineIndex) lineCol(offset int) (int, int) {
	if offset < 0 {
		return 1, 1
	}
	line := sort.Search(len(i.starts), func(idx int) bool { return i.starts[idx] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return line + 1, offset - i.starts[line] + 1
}

// MaskValue shortens a secret for log output.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + "..." + value[len(value)-4:]
}

func firstMatchedGroup(match []int) (int, int, bool) {
	for i := 2; i+1 < len(match); i += 2 {
		if match[i] >= 0 && match[i+1] >= 0 {
			return match[i], match[i+1], true
		}
	}
	return 0, 0, false
}
