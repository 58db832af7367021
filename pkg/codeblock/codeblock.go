// Package codeblock 从 Markdown 文本中提取围栏代码块
package codeblock

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Block 一个可执行代码块
type Block struct {
	// Language 信息串的第一个词（小写），未标注时为空
	Language string
	// Code 代码内容，不含末尾换行
	Code string
}

// Extractor 代码块提取函数
type Extractor func(content string) []Block

var markdown = goldmark.New()

// Extract 按文档顺序返回所有已闭合的非空围栏代码块
//
// 纯函数，不会失败：没有代码块时返回空切片。
// 未闭合的围栏（通常是被截断的回复）被忽略。
func Extract(content string) []Block {
	src := []byte(content)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var blocks []Block
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		code, end := blockCode(fcb, src)
		if strings.TrimSpace(code) == "" || !closedAt(src, end) {
			return ast.WalkSkipChildren, nil
		}

		blocks = append(blocks, Block{
			Language: language(fcb, src),
			Code:     code,
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// Languages 返回代码块的语言列表
func Languages(blocks []Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Language
	}
	return out
}

func language(fcb *ast.FencedCodeBlock, src []byte) string {
	if fcb.Info == nil {
		return ""
	}
	lang := fcb.Language(src)
	if i := bytes.IndexAny(lang, " \t{"); i >= 0 {
		lang = lang[:i]
	}
	return strings.ToLower(string(lang))
}

// blockCode 拼接代码行，返回代码与最后一行在源文本中的结束位置
func blockCode(fcb *ast.FencedCodeBlock, src []byte) (string, int) {
	var buf bytes.Buffer
	lines := fcb.Lines()
	end := -1
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
		end = seg.Stop
	}
	return strings.TrimRight(buf.String(), "\r\n"), end
}

// closedAt 检查 end 之后是否紧跟闭合围栏
func closedAt(src []byte, end int) bool {
	if end < 0 || end > len(src) {
		return false
	}
	rest := src[end:]
	// 最后一行可能不含换行符
	if i := bytes.IndexByte(rest, '\n'); i >= 0 && len(bytes.TrimSpace(rest[:i])) == 0 {
		rest = rest[i+1:]
	}
	rest = bytes.TrimLeft(rest, " \t>")
	return bytes.HasPrefix(rest, []byte("```")) || bytes.HasPrefix(rest, []byte("~~~"))
}
