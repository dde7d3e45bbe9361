package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic são os quatro primeiros bytes de um frame zstd.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// writeDump grava data em w, comprimindo com zstd se compress.
func writeDump(w io.Writer, data []byte, compress bool) error {
	if !compress {
		_, err := w.Write(data)
		return err
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)
	if _, err := bw.Write(data); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// readDump lê um dump, descomprimindo se ele começar com o cabeçalho zstd.
func readDump(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if !bytes.Equal(head, zstdMagic) {
		return io.ReadAll(br)
	}
	dec, err := zstd.NewReader(br)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// dumpName monta o nome do arquivo de saída.
func dumpName(world, format string, compress bool) string {
	name := world + "." + format
	if compress {
		name += ".zst"
	}
	return name
}

// writeDumpFile grava o dump em path ("-" é a saída padrão).
func writeDumpFile(path string, data []byte, compress bool) error {
	if path == "-" {
		return writeDump(os.Stdout, data, compress)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeDump(f, data, compress); err != nil {
		f.Close()
		return fmt.Errorf("gravando %s: %w", path, err)
	}
	return f.Close()
}

func readDumpFile(path string) ([]byte, error) {
	if path == "-" {
		return readDump(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readDump(f)
}

// validFormat aceita "json" e "csv".
func validFormat(f string) (string, bool) {
	f = strings.ToLower(strings.TrimSpace(f))
	return f, f == "json" || f == "csv"
}
