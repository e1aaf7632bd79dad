package utils

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			ghtml.WithHardWraps(),
			ghtml.WithXHTML(),
		),
	)
	policy       = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

func init() {
	policy.AllowImages()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return html.EscapeString(source)
	}
	return EnhanceHTMLContent(policy.Sanitize(buf.String()))
}

// SanitizeHTML cleans user supplied HTML with the UGC policy.
func SanitizeHTML(source string) string {
	return policy.Sanitize(source)
}

// StripTags removes all markup, for subjects and names.
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// HasHTMLOption reports whether wr_option marks the content as HTML (html1/html2).
func HasHTMLOption(option string) bool {
	for _, opt := range strings.Split(option, ",") {
		switch strings.TrimSpace(opt) {
		case "html1", "html2":
			return true
		}
	}
	return false
}

// RenderContent 根据 wr_option 渲染正文：HTML 内容只做清洗，其余按 Markdown 渲染
func RenderContent(content, option string) string {
	if HasHTMLOption(option) {
		return EnhanceHTMLContent(SanitizeHTML(content))
	}
	return RenderMarkdown(content)
}
