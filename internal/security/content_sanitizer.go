// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが入力する自由記述テキスト（説明・メモ・目標など）から
// HTMLタグを除去し、保存されたテキストがクライアントでマークアップとして
// 解釈されることを防ぐ。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由記述テキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize は全てのHTMLタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	// script, styleなどの要素は内容ごと除去される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(text string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなため、単一インスタンスを共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はbluemondayのStrictPolicyを用いたTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses は文字実体参照の多重エンコードを解く最大回数。
const maxSanitizePasses = 8

// Sanitize はHTMLタグを除去したプレーンテキストを返す。
// 文字実体参照は元の文字に戻して保存するが、戻した結果にタグが現れた場合に備え、
// 出力が変化しなくなるまでサニタイズを繰り返す。上限回数で収束しない入力は空文字にする。
func (s *textSanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}
	current := text
	for range maxSanitizePasses {
		escaped := s.policy.Sanitize(current)
		next := strings.TrimSpace(html.UnescapeString(escaped))
		if next == current {
			return next
		}
		current = next
	}
	return ""
}

// SanitizeAll はスライスの各要素をサニタイズし、空になった要素を取り除く。
func SanitizeAll(s TextSanitizer, items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := s.Sanitize(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
