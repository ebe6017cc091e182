package csvio

import (
	"strconv"
	"strings"
	"testing"
)

func BenchmarkReadFrame(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("client_id;date;hour;minute;product_id;quantity\n")
	for i := 0; i < 10000; i++ {
		sb.WriteString(strconv.Itoa(i%100) + ";2023-10-01;" + strconv.Itoa(i%24) + ";" + strconv.Itoa(i%60) + ";" + strconv.Itoa(i) + ";1\n")
	}
	body := sb.String()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		f, err := ReadFrame(strings.NewReader(body), ReaderOptions{HasHeader: true, Delimiter: ';'})
		if err != nil {
			b.Fatal(err)
		}
		if f.Rows() == 0 {
			b.Fatal("no rows")
		}
	}
}
