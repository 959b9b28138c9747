package usecase

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode"

	"prescription-api-app/internal/modules/prescription/domain"
)

const fenceMarker = "```"

// StripFence モデル出力を囲むコードフェンス（```json ... ```）を取り除く
//
// 先頭の開始マーカーと、その後に最初に現れる終了マーカーの組だけを対象とする。
// 片方しか無い場合は何もせずに返す。
func StripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, fenceMarker) {
		return trimmed
	}

	// 開始マーカー直後の言語タグ（json等）と空白・改行を読み飛ばす
	body := trimmed[len(fenceMarker):]
	body = strings.TrimLeftFunc(body, isFenceTagRune)
	body = strings.TrimLeftFunc(body, unicode.IsSpace)

	end := strings.Index(body, fenceMarker)
	if end == -1 {
		return trimmed
	}

	return strings.TrimSpace(body[:end])
}

func isFenceTagRune(r rune) bool {
	return r == '_' || r == '-' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// ParseResponse モデル出力を未検証のJSONオブジェクトとして読み込む
// 埋め込まれたJSONを探すような部分的な復元は行わない
func ParseResponse(text string) (map[string]any, error) {
	cleaned := StripFence(text)
	if cleaned == "" {
		return nil, &domain.MalformedResponseError{
			RawText: text,
			Err:     errors.New("response is empty"),
		}
	}

	decoder := json.NewDecoder(strings.NewReader(cleaned))
	decoder.UseNumber()

	var candidate any
	if err := decoder.Decode(&candidate); err != nil {
		return nil, &domain.MalformedResponseError{RawText: text, Err: err}
	}

	// 後ろに余計な値が続く場合も不正とみなす
	var trailing any
	if err := decoder.Decode(&trailing); err != io.EOF {
		return nil, &domain.MalformedResponseError{
			RawText: text,
			Err:     errors.New("unexpected trailing data after JSON value"),
		}
	}

	object, ok := candidate.(map[string]any)
	if !ok {
		return nil, &domain.MalformedResponseError{
			RawText: text,
			Err:     errors.New("response is not a JSON object"),
		}
	}

	return object, nil
}
