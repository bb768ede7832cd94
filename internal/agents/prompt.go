package agents

import (
	"fmt"
	"math"
	"strings"

	"stock-dashboard/internal/analysis/indicators"
	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/models"
)

// Language selects the prompt and persona wording.
type Language string

const (
	LanguageChinese Language = "zh"
	LanguageEnglish Language = "en"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == LanguageChinese || l == LanguageEnglish
}

// AnalysisRequest is the structured payload a prompt is built from.
type AnalysisRequest struct {
	Symbol string
	Info   *models.CompanyInfo
	Latest indicators.Snapshot
}

// phrases holds the fixed wording for one language.
type phrases struct {
	colon          string
	basicIntro     string // company, symbol
	customIntro    string // company, symbol
	questionLabel  string
	technicalTitle string
	fundamentTitle string
	price          string
	marketCap      string
	trailingPE     string
	high52         string
	low52          string
	basicAsks      []string
	basicRules     []string
	customRules    []string
	asksTitle      string
	rulesTitle     string
	basicRole      string
	customRole     string
	sourcesHeading string
	emptyQuestion  string
}

var phraseBook = map[Language]phrases{
	LanguageChinese: {
		colon:          "：",
		basicIntro:     "请对%s（%s）进行全面分析，包括以下方面：",
		customIntro:    "关于%s（%s）的具体问题分析：",
		questionLabel:  "问题",
		technicalTitle: "技术指标分析",
		fundamentTitle: "公司基本面分析",
		price:          "当前股价",
		marketCap:      "市值",
		trailingPE:     "市盈率",
		high52:         "52周最高价",
		low52:          "52周最低价",
		asksTitle:      "请提供：",
		rulesTitle:     "要求：",
		basicAsks: []string{
			"技术面分析：基于均线、RSI等指标的走势分析",
			"基本面分析：基于公司财务指标的分析",
			"投资建议：根据以上分析给出明确的投资建议",
		},
		basicRules: []string{
			"分析要客观专业",
			"使用清晰的标题和段落结构",
			"给出具体的数据支持",
			"用中文回答",
		},
		customRules: []string{
			"基于最新的市场数据和公司信息",
			"给出具体的数据支持",
			"提供明确的结论或建议",
			"用中文回答",
			"使用清晰的标题和段落结构",
		},
		basicRole:      "你是一位专业的金融分析师。请提供客观、专业的分析和建议。",
		customRole:     "你是一位专业的金融分析师。请针对用户的具体问题提供深入的分析和建议。保持专业、简洁和客观。",
		sourcesHeading: "**数据来源：**",
		emptyQuestion:  "请先输入您想要分析的问题",
	},
	LanguageEnglish: {
		colon:          ": ",
		basicIntro:     "Please give a comprehensive analysis of %s (%s) covering the following:",
		customIntro:    "Specific question about %s (%s):",
		questionLabel:  "Question",
		technicalTitle: "Technical indicators",
		fundamentTitle: "Company fundamentals",
		price:          "Current price",
		marketCap:      "Market cap",
		trailingPE:     "Trailing P/E",
		high52:         "52-week high",
		low52:          "52-week low",
		asksTitle:      "Please provide:",
		rulesTitle:     "Requirements:",
		basicAsks: []string{
			"Technical view: trend analysis based on the moving averages and RSI",
			"Fundamental view: analysis based on the company's financial metrics",
			"Recommendation: a clear investment recommendation derived from the above",
		},
		basicRules: []string{
			"Be objective and professional",
			"Use clear headings and paragraphs",
			"Support the analysis with concrete figures",
			"Answer in English",
		},
		customRules: []string{
			"Base the answer on the latest market data and company information",
			"Support the analysis with concrete figures",
			"Give a clear conclusion or recommendation",
			"Answer in English",
			"Use clear headings and paragraphs",
		},
		basicRole:      "You are a professional financial analyst. Provide objective, professional analysis and advice.",
		customRole:     "You are a professional financial analyst. Give an in-depth answer to the user's specific question. Stay professional, concise and objective.",
		sourcesHeading: "**Sources:**",
		emptyQuestion:  "Please enter the question you want analyzed first",
	},
}

// PromptBuilder renders analysis requests into deterministic prompts.
type PromptBuilder struct {
	lang Language
	p    phrases
}

// NewPromptBuilder creates a builder for the given language, defaulting to Chinese.
func NewPromptBuilder(lang Language) *PromptBuilder {
	p, ok := phraseBook[lang]
	if !ok {
		lang = LanguageChinese
		p = phraseBook[lang]
	}
	return &PromptBuilder{lang: lang, p: p}
}

// Language returns the builder's language.
func (b *PromptBuilder) Language() Language { return b.lang }

// BasicSystemRole returns the persona for the automatic report.
func (b *PromptBuilder) BasicSystemRole() string { return b.p.basicRole }

// CustomSystemRole returns the persona for user questions.
func (b *PromptBuilder) CustomSystemRole() string { return b.p.customRole }

// SourcesHeading returns the heading placed above citations.
func (b *PromptBuilder) SourcesHeading() string { return b.p.sourcesHeading }

// EmptyQuestionWarning returns the local warning for a blank question.
func (b *PromptBuilder) EmptyQuestionWarning() string { return b.p.emptyQuestion }

// BuildBasicPrompt renders the automatic report prompt.
func (b *PromptBuilder) BuildBasicPrompt(req AnalysisRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(b.p.basicIntro, req.Info.DisplayName(req.Symbol), req.Symbol))
	sb.WriteString("\n\n")
	b.writeData(&sb, req)
	sb.WriteString("\n")
	writeList(&sb, b.p.asksTitle, b.p.basicAsks)
	sb.WriteString("\n")
	writeList(&sb, b.p.rulesTitle, b.p.basicRules)

	return sb.String()
}

// BuildCustomPrompt renders a prompt around a user question. A blank question
// is rejected with a ValidationError.
func (b *PromptBuilder) BuildCustomPrompt(req AnalysisRequest, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", apperrors.NewValidationError("question", question, b.p.emptyQuestion)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(b.p.customIntro, req.Info.DisplayName(req.Symbol), req.Symbol))
	sb.WriteString("\n\n")
	sb.WriteString(b.p.questionLabel + b.p.colon + question + "\n\n")
	b.writeData(&sb, req)
	sb.WriteString("\n")
	writeList(&sb, b.p.rulesTitle, b.p.customRules)

	return sb.String(), nil
}

func (b *PromptBuilder) writeData(sb *strings.Builder, req AnalysisRequest) {
	c := b.p.colon

	sb.WriteString("1. " + b.p.technicalTitle + c + "\n")
	sb.WriteString("- " + b.p.price + c + "$" + FormatIndicator(req.Latest.Close) + "\n")
	sb.WriteString("- MA5" + c + "$" + FormatIndicator(req.Latest.MA5) + "\n")
	sb.WriteString("- MA20" + c + "$" + FormatIndicator(req.Latest.MA20) + "\n")
	sb.WriteString("- MA60" + c + "$" + FormatIndicator(req.Latest.MA60) + "\n")
	sb.WriteString("- RSI" + c + FormatIndicator(req.Latest.RSI) + "\n")
	sb.WriteString("\n")

	sb.WriteString("2. " + b.p.fundamentTitle + c + "\n")
	sb.WriteString("- " + b.p.marketCap + c + req.Info.MarketCapText() + "\n")
	sb.WriteString("- " + b.p.trailingPE + c + req.Info.TrailingPEText() + "\n")
	sb.WriteString("- " + b.p.high52 + c + req.Info.FiftyTwoWeekHighText() + "\n")
	sb.WriteString("- " + b.p.low52 + c + req.Info.FiftyTwoWeekLowText() + "\n")
}

func writeList(sb *strings.Builder, title string, items []string) {
	sb.WriteString(title + "\n")
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, item))
	}
}

// FormatIndicator renders an indicator with two decimals, or N/A when undefined.
func FormatIndicator(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.NotAvailable
	}
	return fmt.Sprintf("%.2f", v)
}
