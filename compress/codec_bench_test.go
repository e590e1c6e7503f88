package compress

import (
	"fmt"
	"testing"

	"github.com/arloliu/strpack/format"
)

// generateBenchmarkData creates test data for benchmarks
func generateBenchmarkData(size int, compressibility string) []byte {
	data := make([]byte, size)

	switch compressibility {
	case "highly_compressible":
		// All zeros
	case "serialized":
		// Shape of a plain serialized list of records
		pattern := []byte("r#s$id,i(s$name,s'strpack,s$tags,a$s!,s#a,")
		for i := range data {
			data[i] = pattern[i%len(pattern)]
		}
	case "semi_compressible":
		for i := range data {
			if i%100 < 50 {
				data[i] = byte(i % 256)
			} else {
				data[i] = byte((i*7 + i*i) % 256)
			}
		}
	default:
		for i := range data {
			data[i] = byte((i*31 + i*i*7 + i*i*i*3) % 256)
		}
	}

	return data
}

var benchSizes = []int{
	1024,    // 1 KB
	16384,   // 16 KB
	65536,   // 64 KB
	1048576, // 1 MB
}

var benchCompressibilities = []string{
	"highly_compressible",
	"serialized",
	"semi_compressible",
	"incompressible",
}

func BenchmarkAllCodecs_Compress(b *testing.B) {
	for codecName, codec := range builtinCodecsByName(b) {
		b.Run(codecName, func(b *testing.B) {
			for _, size := range benchSizes {
				for _, comp := range benchCompressibilities {
					b.Run(fmt.Sprintf("%dKB_%s", size/1024, comp), func(b *testing.B) {
						data := generateBenchmarkData(size, comp)

						b.ReportAllocs()
						b.SetBytes(int64(len(data)))

						for b.Loop() {
							if _, err := codec.Compress(data); err != nil {
								b.Fatal(err)
							}
						}
					})
				}
			}
		})
	}
}

func BenchmarkAllCodecs_Decompress(b *testing.B) {
	for codecName, codec := range builtinCodecsByName(b) {
		b.Run(codecName, func(b *testing.B) {
			for _, size := range benchSizes {
				for _, comp := range benchCompressibilities {
					b.Run(fmt.Sprintf("%dKB_%s", size/1024, comp), func(b *testing.B) {
						data := generateBenchmarkData(size, comp)
						compressed, err := codec.Compress(data)
						if err != nil {
							b.Fatal(err)
						}

						b.ReportAllocs()
						b.SetBytes(int64(len(data)))

						for b.Loop() {
							if _, err := codec.Decompress(compressed); err != nil {
								b.Fatal(err)
							}
						}
					})
				}
			}
		})
	}
}

// BenchmarkBlockCodec_Owned measures a codec owned by one goroutine, the way
// background workers use it.
func BenchmarkBlockCodec_Owned(b *testing.B) {
	codec := NewBlockCodec()

	for _, size := range benchSizes {
		data := generateBenchmarkData(size, "serialized")

		b.Run(fmt.Sprintf("%dKB", size/1024), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(size))

			for b.Loop() {
				block, err := codec.Compress(data)
				if err != nil {
					b.Fatal(err)
				}
				if _, err := codec.DecompressSize(block, size); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCodecComparison_CompressionRatio(b *testing.B) {
	data := generateBenchmarkData(64*1024, "serialized")

	for _, cType := range BuiltinTypes {
		codec, err := GetCodec(cType)
		if err != nil {
			b.Fatal(err)
		}

		b.Run(cType.String(), func(b *testing.B) {
			var stats CompressionStats
			for b.Loop() {
				stats, err = Measure(cType, codec, data)
				if err != nil {
					b.Fatal(err)
				}
			}
			b.ReportMetric(stats.CompressionRatio()*100, "%ratio")
		})
	}
}

func BenchmarkAllCodecs_Parallel(b *testing.B) {
	data := generateBenchmarkData(65536, "serialized")

	for _, cType := range []format.CompressionType{format.CompressionBlock, format.CompressionLZ4} {
		codec, _ := GetCodec(cType)

		b.Run(cType.String(), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))

			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if _, err := codec.Compress(data); err != nil {
						b.Error(err)
						return
					}
				}
			})
		})
	}
}
