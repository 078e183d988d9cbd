package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

const separatorWidth = 50

// Console 読み込み結果を端末向けに出力する
type Console struct {
	out     io.Writer
	printed int
}

// NewConsole Consoleを生成
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Print 1つの入力元の結果を出力する。2件目以降は区切り線を挟む
func (c *Console) Print(source string, events []domain.Event, err error) error {
	var builder strings.Builder
	if c.printed > 0 {
		builder.WriteString("\n" + strings.Repeat("-", separatorWidth) + "\n\n")
	}
	if err != nil {
		builder.WriteString(buildFailureMessage(source, err))
	} else {
		builder.WriteString(buildEventsMessage(source, events))
	}
	c.printed++

	_, werr := io.WriteString(c.out, builder.String())
	return werr
}

// buildEventsMessage 成功時のメッセージを構築
func buildEventsMessage(source string, events []domain.Event) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("✅ %sからイベントを読み込みました (%d件):\n\n", source, len(events)))
	for _, event := range events {
		appendEventLine(&builder, event)
	}
	return builder.String()
}

// buildFailureMessage 失敗時のメッセージを構築
func buildFailureMessage(source string, err error) string {
	return fmt.Sprintf("❌ %sからの読み込みに失敗しました:\n%v\n", source, err)
}

func appendEventLine(builder *strings.Builder, event domain.Event) {
	dateRange := event.StartDate().String()
	if end, ok := event.EndDate(); ok {
		dateRange = fmt.Sprintf("%s -> %s", event.StartDate(), end)
	}
	builder.WriteString(fmt.Sprintf("- %s (%s) [%s]\n", event.Title(), dateRange, event.Category()))
}
