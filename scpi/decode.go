package scpi

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// DecodeASCII は、応答バイト列をASCII文字列として解釈し、前後の空白と改行を取り除きます。
func DecodeASCII(b []byte) (string, error) {
	for _, c := range b {
		if 0x80 <= c {
			return "", errors.WithStack(&DecodeError{Response: string(b), Want: "ascii"})
		}
	}
	return strings.TrimSpace(string(b)), nil
}

// ParseFloat は、数値応答を解釈します。
// 測定範囲外を表す 9.90000000E+37 のような値も特別扱いせずそのまま返します。
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.WithStack(&DecodeError{Response: s, Want: "float", Err: err})
	}
	return v, nil
}

// ParseEnabled は、"1" または "ON" を含む応答を true とみなします。
// 計測器によって応答に接頭辞や余白が付くため、完全一致では判定しません。
func ParseEnabled(s string) bool {
	s = strings.ToUpper(s)
	return strings.Contains(s, "1") || strings.Contains(s, "ON")
}

// ParseQuantity は、"C1:VDIV 5.00E-01V" のようなヘッダと単位付きの応答から数値を取り出します。
func ParseQuantity(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, errors.WithStack(&DecodeError{Response: s, Want: "quantity"})
	}
	v := fields[len(fields)-1]
	if i := strings.LastIndexByte(v, ','); 0 <= i {
		v = v[i+1:]
	}
	v = strings.TrimRightFunc(v, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.WithStack(&DecodeError{Response: s, Want: "quantity", Err: err})
	}
	return f, nil
}

// ParseHex は、"0x0010" や "10" のような16進数のレジスタ値を解釈します。
func ParseHex(s string) (uint64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "0x")
	n, err := strconv.ParseUint(v, 16, 64)
	if err != nil {
		return 0, errors.WithStack(&DecodeError{Response: s, Want: "hex", Err: err})
	}
	return n, nil
}

// ParseBlock は、IEEE 488.2 の確定長ブロック "#<桁数><長さ><データ>" を解釈します。
// end は b 中のブロック終端の位置で、b がまだブロック全体を含まない場合は 0 です。
func ParseBlock(b []byte) (data []byte, end int, err error) {
	i := bytes.IndexByte(b, '#')
	if i < 0 || len(b) < i+2 {
		return nil, 0, nil
	}
	digits := int(b[i+1]) - '0'
	if digits < 1 || 9 < digits {
		return nil, 0, errors.WithStack(&DecodeError{Response: string(b[i : i+2]), Want: "block header"})
	}
	start := i + 2 + digits
	if len(b) < start {
		return nil, 0, nil
	}
	n, perr := strconv.Atoi(string(b[i+2 : start]))
	if perr != nil {
		return nil, 0, errors.WithStack(&DecodeError{Response: string(b[i:start]), Want: "block length", Err: perr})
	}
	if len(b) < start+n {
		return nil, 0, nil
	}
	return b[start : start+n], start + n, nil
}
