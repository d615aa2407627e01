package reduce

import (
	"strings"
	"testing"
)

// BenchmarkReduce exercises the full pass pipeline on a page roughly the
// size of a real pricing page after render (~400KB).
func BenchmarkReduce(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("<html><head><script>var s = 'lots of js';</script></head><body><main>")
	for i := 0; i < 2000; i++ {
		sb.WriteString(`<div class="row" style="margin:0"><span>Plan copy with $9.99/month somewhere</span><div></div></div>`)
	}
	sb.WriteString("</main><footer>footer</footer></body></html>")
	page := sb.String()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := Reduce(page)
		if len(out) == 0 {
			b.Fatal("empty output")
		}
	}
}
