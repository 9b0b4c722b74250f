package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "blank", in: "  \n\t ", want: ""},
		{name: "collapses whitespace within paragraph", in: "Hello   world.\nSecond\tline.", want: "Hello world. Second line."},
		{name: "keeps paragraph breaks", in: "Para one.\n\n\n\nPara two.", want: "Para one.\n\nPara two."},
		{name: "windows line endings", in: "One.\r\n\r\nTwo.", want: "One.\n\nTwo."},
		{name: "removes urls and emails", in: "Visit https://example.com/x now or mail a.b@example.org today", want: "Visit now or mail today"},
		{name: "removes cid artifacts", in: "Hel(cid:12)lo", want: "Hello"},
		{name: "non-breaking space", in: "a\u00a0b", want: "a b"},
		{name: "space before punctuation", in: "Hello , world !", want: "Hello, world!"},
		{name: "missing space after punctuation", in: "The end.Next part", want: "The end. Next part"},
		{name: "page markers", in: "Intro text.\n  12  \nPage 3\nChapter 4\nMore text.", want: "Intro text.\n\nMore text."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}
