package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"

	"github.com/kailas-cloud/bioportal"
)

// printResult writes every payload to out, headed by its label. Channel
// failures are reported on errOut and turned into the command error.
func (a *cliApp) printResult(res *bioportal.Result) error {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	errs := res.Errors()
	for _, label := range res.Labels() {
		if err, failed := errs[label]; failed {
			fmt.Fprintf(a.errOut, "%s %s\n", bad("["+label+"]"), err)
			continue
		}
		if !res.IsSingle() {
			fmt.Fprintf(a.errOut, "%s %s\n", ok("["+label+"]"), res.URL(label))
		}
		p, _ := res.Payload(label)
		if err := a.printJSON(p); err != nil {
			return err
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d requests failed", len(errs), res.Len())
	}
	return nil
}

// printJSON indents JSON payloads; anything else is written verbatim.
func (a *cliApp) printJSON(p []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, p, "", "  "); err != nil {
		buf.Reset()
		buf.Write(p)
	}
	buf.WriteByte('\n')
	_, err := a.out.Write(buf.Bytes())
	return err
}
