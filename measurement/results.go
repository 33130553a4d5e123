package measurement

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/pkg/errors"
)

// TimestampLayout は、メタデータとファイル名に使う時刻の書式です。
const TimestampLayout = "02_01_2006_15_04_05"

// Columns は、結果CSVの列名です。
var Columns = []string{
	"load_current",
	"psu_measured_voltages",
	"psu_measured_currents",
	"psu_measured_powers",
	"load_measured_voltages",
	"load_measured_currents",
	"load_measured_powers",
	"temperatures",
	"output_voltage",
}

func (s *Sample) values() []float64 {
	return []float64{
		s.LoadCurrentSetting,
		s.PSUVoltage,
		s.PSUCurrent,
		s.PSUPower,
		s.LoadVoltage,
		s.LoadCurrent,
		s.LoadPower,
		s.Temperature,
		s.OutputVoltage,
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV は、測定値を1行1サンプルのCSVで書き出します。
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, Columns...)); err != nil {
		return errors.WithStack(err)
	}
	for i, s := range r.Samples {
		row := []string{strconv.Itoa(i)}
		for _, v := range s.values() {
			row = append(row, formatValue(v))
		}
		if err := cw.Write(row); err != nil {
			return errors.WithStack(err)
		}
	}
	cw.Flush()
	return errors.WithStack(cw.Error())
}

// WriteMetaCSV は、メタデータを1行1項目のCSVで書き出します。
func (r *Result) WriteMetaCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"", "meta"}); err != nil {
		return errors.WithStack(err)
	}
	for _, e := range r.Meta.Entries() {
		if err := cw.Write([]string{e.Key, e.Value}); err != nil {
			return errors.WithStack(err)
		}
	}
	cw.Flush()
	return errors.WithStack(cw.Error())
}

// ToPB は、結果を protobuf の Struct に変換します。
func (r *Result) ToPB() *structpb.Struct {
	meta := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	for _, e := range r.Meta.Entries() {
		meta.Fields[e.Key] = stringValue(e.Value)
	}
	columns := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	for i, name := range Columns {
		list := &structpb.ListValue{}
		for _, s := range r.Samples {
			list.Values = append(list.Values, numberValue(s.values()[i]))
		}
		columns.Fields[name] = &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: list}}
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"meta":    {Kind: &structpb.Value_StructValue{StructValue: meta}},
		"results": {Kind: &structpb.Value_StructValue{StructValue: columns}},
	}}
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

// Paths は、結果ファイルのパスです。
type Paths struct {
	Results  string
	Meta     string
	Protobuf string
}

// FilePaths は、"<時刻>_<接頭辞>" の結果ファイルと、拡張子を置き換えたメタデータのパスを返します。
func (r *Result) FilePaths(dir, prefix string) Paths {
	base := filepath.Join(dir, r.Timestamp.Format(TimestampLayout)+"_"+prefix)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Paths{
		Results:  base,
		Meta:     stem + ".meta.csv",
		Protobuf: stem + ".pb",
	}
}

// Save は、結果とメタデータを dir に書き出します。withPB が true なら protobuf でも書き出します。
func (r *Result) Save(dir, prefix string, withPB bool) (Paths, error) {
	paths := r.FilePaths(dir, prefix)
	if err := writeFile(paths.Results, r.WriteCSV); err != nil {
		return paths, err
	}
	if err := writeFile(paths.Meta, r.WriteMetaCSV); err != nil {
		return paths, err
	}
	if !withPB {
		paths.Protobuf = ""
		return paths, nil
	}
	b, err := proto.Marshal(r.ToPB())
	if err != nil {
		return paths, errors.WithStack(err)
	}
	if err := os.WriteFile(paths.Protobuf, b, 0644); err != nil {
		return paths, errors.WithStack(err)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return errors.WithStack(f.Close())
}
