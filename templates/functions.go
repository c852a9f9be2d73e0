// Package templates holds the functions shared by the HTML report templates.
package templates

import (
	"fmt"
	"html/template"
	"time"

	"github.com/ethereum-optimism/infra/kizu/types"
)

// GetTemplateFunc returns the centralized template functions used across the application
func GetTemplateFunc() template.FuncMap {
	return template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			if d < time.Second {
				return fmt.Sprintf("%dms", d.Milliseconds())
			}
			return d.Truncate(time.Millisecond).String()
		},
		"getStatusClass": getStatusString,
		"getStatusText":  getStatusString,
		"testStatus": func(r types.TestResults) string {
			return getStatusString(r.IsPassing())
		},
		"passRate": passRate,
	}
}

// getStatusString returns a consistent lowercase status string
func getStatusString(pass bool) string {
	if pass {
		return "pass"
	}
	return "fail"
}

// passRate renders passed/total as a percentage. An empty total is 0%.
func passRate(passed, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(passed)*100/float64(total))
}
