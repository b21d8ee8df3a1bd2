package matcher

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// 候选类型
const (
	TypeIdentity = "身份证号"
	TypeMobile   = "手机号"
	TypeYear     = "年份"
	TypeAmount   = "金额/数字"
)

type candidatePattern struct {
	kind    string
	pattern string
}

// candidatePatterns 按优先级排列，同一个值只归入先匹配到的类型
var candidatePatterns = []candidatePattern{
	{TypeIdentity, `\d{15,18}[Xx]?`},
	{TypeMobile, `1[3-9]\d{9}`},
	{TypeYear, `20\d{2}`},
	{TypeAmount, `\d{4,}(?:\.\d{1,2})?`},
}

// numberToken 连续的数字串，可带小数部分和身份证校验位
const numberToken = `\d+(?:\.\d+)?[Xx]?`

// candidateExtractor 候选值识别器实现
type candidateExtractor struct {
	patternCache map[string]*regexp.Regexp
}

// NewCandidateExtractor 创建候选值识别器，创建后只读，可并发使用
func NewCandidateExtractor() domain.CandidateExtractor {
	ce := &candidateExtractor{
		patternCache: make(map[string]*regexp.Regexp),
	}
	ce.getOrCreatePattern(numberToken)
	for _, p := range candidatePatterns {
		ce.getOrCreatePattern(anchored(p.pattern))
	}
	return ce
}

var defaultExtractor = NewCandidateExtractor()

// ExtractCandidates 使用默认识别器
func ExtractCandidates(text string) []domain.Candidate {
	return defaultExtractor.ExtractCandidates(text)
}

type token struct {
	text  string
	start int
}

// ExtractCandidates 识别文本中的证件号、手机号、年份和金额。
// 只匹配完整的数字串，长数字串内部的片段不会单独成为候选
func (ce *candidateExtractor) ExtractCandidates(text string) []domain.Candidate {
	var tokens []token
	for _, loc := range ce.patternCache[numberToken].FindAllStringIndex(text, -1) {
		tokens = append(tokens, token{
			text:  text[loc[0]:loc[1]],
			start: utf8.RuneCountInString(text[:loc[0]]),
		})
	}

	var candidates []domain.Candidate
	seen := make(map[string]bool)
	// 已归类的数字串不再参与后面的类型，去掉校验位后也不行
	claimed := make([]bool, len(tokens))
	for _, p := range candidatePatterns {
		re := ce.patternCache[anchored(p.pattern)]
		for i, tok := range tokens {
			if claimed[i] {
				continue
			}
			value := tok.text
			if !re.MatchString(value) {
				trimmed := strings.TrimRight(value, "Xx")
				if trimmed == value || !re.MatchString(trimmed) {
					continue
				}
				value = trimmed
			}
			claimed[i] = true
			if seen[value] {
				continue
			}
			seen[value] = true
			candidates = append(candidates, domain.Candidate{
				Text:  value,
				Type:  p.kind,
				Start: tok.start,
				End:   tok.start + utf8.RuneCountInString(value),
			})
		}
	}
	return candidates
}

// getOrCreatePattern 获取或创建正则表达式模式
func (ce *candidateExtractor) getOrCreatePattern(pattern string) *regexp.Regexp {
	if re, exists := ce.patternCache[pattern]; exists {
		return re
	}

	re := regexp.MustCompile(pattern)
	ce.patternCache[pattern] = re
	return re
}

func anchored(pattern string) string {
	return `^(?:` + pattern + `)$`
}
