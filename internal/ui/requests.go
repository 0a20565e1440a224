package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jrsteele09/go-shop-admin/apiclient"
)

// FormatExchange renders one round trip as a coloured log line:
// "[ GET    ] 200 /products (12ms)", with "retry" appended for a replayed request.
func FormatExchange(e apiclient.Exchange) string {
	paddedMethod := fmt.Sprintf(" %-7s", e.Method)
	color, ok := MethodColors[e.Method]
	if !ok {
		color = Gray
	}
	displayMethod := color + paddedMethod + ResetColor

	status := "---"
	if e.Status != 0 {
		status = fmt.Sprintf("%d", e.Status)
	}
	line := fmt.Sprintf("[%-19s] %s%s%s %s (%s)", displayMethod, StatusColor(e.Status), status, ResetColor, e.Path, e.Duration.Round(time.Millisecond))
	if e.Attempt > 0 {
		line += " retry"
	}
	if e.Err != nil {
		line += " " + e.Err.Error()
	}
	return line
}

// RequestLogger returns an apiclient observer writing one FormatExchange line per round trip to w.
func RequestLogger(w io.Writer) func(apiclient.Exchange) {
	var lock sync.Mutex
	return func(e apiclient.Exchange) {
		lock.Lock()
		defer lock.Unlock()
		fmt.Fprintln(w, FormatExchange(e))
	}
}
