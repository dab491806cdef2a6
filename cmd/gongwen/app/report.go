package app

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/generate"
)

// Report prints the summary of a finished generation.
func Report(w io.Writer, outcome generate.Outcome) {
	fmt.Fprintf(w, "\n  %s 生成完成 %s\n",
		cliui.SuccessMark,
		cliui.Elapsed(outcome.Duration),
	)
	if outcome.Message.DocxFile != "" {
		fmt.Fprintln(w, cliui.KeyValue("Document", outcome.Message.DocxFile))
	}
	if outcome.Metadata.ConvID != "" {
		fmt.Fprintln(w, cliui.KeyValue("Conversation", outcome.Metadata.ConvID))
	}
	fmt.Fprintln(w, cliui.KeyValue("Characters", strconv.Itoa(utf8.RuneCountInString(outcome.Message.Content))))
	if outcome.Skipped > 0 {
		fmt.Fprintln(w, cliui.KeyValue("Skipped", strconv.Itoa(outcome.Skipped)))
	}
	fmt.Fprintln(w)
}
