package protocol

import (
	"bytes"
	"strconv"
	"testing"
)

// BenchmarkParseSimpleString benchmarks parsing simple strings
func BenchmarkParseSimpleString(b *testing.B) {
	input := []byte("+OK\r\n")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, _, err := Parse(input); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseError benchmarks parsing error messages
func BenchmarkParseError(b *testing.B) {
	input := []byte("-ERR unknown command\r\n")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, _, err := Parse(input); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseInteger benchmarks parsing integers
func BenchmarkParseInteger(b *testing.B) {
	input := []byte(":1234567890\r\n")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, _, err := Parse(input); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseBulkString benchmarks parsing bulk strings
func BenchmarkParseBulkString(b *testing.B) {
	sizes := []struct {
		name string
		data []byte
	}{
		{"Small_16B", bytes.Repeat([]byte("x"), 16)},
		{"Medium_1KB", bytes.Repeat([]byte("x"), 1024)},
		{"Large_64KB", bytes.Repeat([]byte("x"), 64*1024)},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			var buf bytes.Buffer
			buf.WriteString("$")
			buf.WriteString(strconv.Itoa(len(size.data)))
			buf.WriteString("\r\n")
			buf.Write(size.data)
			buf.WriteString("\r\n")
			input := buf.Bytes()

			b.ResetTimer()
			b.ReportAllocs()
			b.SetBytes(int64(len(size.data)))

			for i := 0; i < b.N; i++ {
				if _, _, err := Parse(input); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkParseArray benchmarks parsing arrays
func BenchmarkParseArray(b *testing.B) {
	scenarios := []struct {
		name  string
		input []byte
	}{
		{
			name:  "Empty",
			input: []byte("*0\r\n"),
		},
		{
			name:  "SmallArray_3",
			input: []byte("*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n"),
		},
		{
			name:  "MediumArray_10",
			input: []byte("*10\r\n$1\r\n1\r\n$1\r\n2\r\n$1\r\n3\r\n$1\r\n4\r\n$1\r\n5\r\n$1\r\n6\r\n$1\r\n7\r\n$1\r\n8\r\n$1\r\n9\r\n$2\r\n10\r\n"),
		},
	}

	for _, sc := range scenarios {
		b.Run(sc.name, func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, _, err := Parse(sc.input); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkParseIncompletePrefix benchmarks the cost of a failed parse
// attempt, which the decoder pays on every partial read.
func BenchmarkParseIncompletePrefix(b *testing.B) {
	input := []byte("$1024\r\n")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, _, err := Parse(input); err != ErrIncomplete {
			b.Fatal(err)
		}
	}
}

// BenchmarkDecoderFragmented benchmarks decoding a reply fed in small
// network-like fragments
func BenchmarkDecoderFragmented(b *testing.B) {
	input := []byte("*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n")
	const fragment = 4

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(input)))

	for i := 0; i < b.N; i++ {
		dec := NewDecoder()
		for off := 0; off < len(input); off += fragment {
			end := off + fragment
			if end > len(input) {
				end = len(input)
			}
			dec.Feed(input[off:end])
			if _, err := dec.Decode(); err != nil && err != ErrIncomplete {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkPackCommand benchmarks encoding commands
func BenchmarkPackCommand(b *testing.B) {
	commands := []struct {
		name string
		cmd  string
		args []string
	}{
		{
			name: "AUTH",
			cmd:  "AUTH",
			args: []string{"secret"},
		},
		{
			name: "SELECT",
			cmd:  "SELECT",
			args: []string{"2"},
		},
		{
			name: "SET_EX",
			cmd:  "SET",
			args: []string{"key", "value", "EX", "60"},
		},
	}

	for _, cmd := range commands {
		b.Run(cmd.name, func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				_ = PackCommand(cmd.cmd, cmd.args...)
			}
		})
	}
}
