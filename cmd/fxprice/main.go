// Command fxprice 命令行 FX 香草期权定价
//
// 用法：
//
//	fxprice -quote 1.3 -strike 1.3 -rf 0.02 -rd 0.03 -vol 0.1 -today 2024-01-01 -maturity 2025-01-01
//	fxprice -input contracts.json -format table
//	fxprice -remote localhost:50051 -input contracts.json
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"cloud.google.com/go/civil"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
	fxgrpc "github.com/wyfcoding/fxpricing/internal/fxpricing/interfaces/grpc"
	"github.com/wyfcoding/fxpricing/pkg/grpcclient"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// contract 一笔待定价合约，日期格式 YYYY-MM-DD，数值字段缺失时为 nil
type contract struct {
	Symbol       string   `json:"symbol"`
	OptionType   string   `json:"option_type"`
	Quote        *float64 `json:"quote,omitempty"`
	StrikePrice  *float64 `json:"strike_price,omitempty"`
	ForeignRate  *float64 `json:"foreign_rate,omitempty"`
	DomesticRate *float64 `json:"domestic_rate,omitempty"`
	Volatility   *float64 `json:"volatility,omitempty"`
	Today        string   `json:"today"`
	Settlement   string   `json:"settlement,omitempty"`
	Maturity     string   `json:"maturity"`
}

// output 单笔定价输出
type output struct {
	Symbol       string  `json:"symbol"`
	OptionType   string  `json:"option_type"`
	Price        float64 `json:"price"`
	TimeToExpiry float64 `json:"time_to_expiry"`
	Error        string  `json:"error,omitempty"`
	Code         string  `json:"code,omitempty"`
}

type pricer func(ctx context.Context, c contract) output

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fxprice", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var c contract
	var quote, strike, rf, rd, vol float64
	fs.StringVar(&c.Symbol, "symbol", "", "currency pair, e.g. EURUSD")
	fs.StringVar(&c.OptionType, "type", "CALL", "option type: CALL or PUT")
	fs.Float64Var(&quote, "quote", 0, "spot quote (domestic per unit of foreign)")
	fs.Float64Var(&strike, "strike", 0, "strike price")
	fs.Float64Var(&rf, "rf", 0, "foreign risk-free rate, continuous compounding (required)")
	fs.Float64Var(&rd, "rd", 0, "domestic risk-free rate, continuous compounding (required)")
	fs.Float64Var(&vol, "vol", 0, "annualised volatility")
	fs.StringVar(&c.Today, "today", "", "valuation date YYYY-MM-DD (default: today)")
	fs.StringVar(&c.Settlement, "settlement", "", "settlement date YYYY-MM-DD (optional)")
	fs.StringVar(&c.Maturity, "maturity", "", "maturity date YYYY-MM-DD")
	input := fs.String("input", "", "JSON file with one contract or an array of contracts, - for stdin")
	format := fs.String("format", "json", "output format: json or table")
	remote := fs.String("remote", "", "price through an fxpricing gRPC server at host:port")
	timeout := fs.Duration("timeout", 10*time.Second, "remote call timeout")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *format != "json" && *format != "table" {
		fmt.Fprintf(stderr, "Error: unknown format %q\n", *format)
		fs.Usage()
		return 2
	}

	// 只有显式给出的数值参数才算已设置
	numbers := map[string]struct {
		src *float64
		dst **float64
	}{
		"quote":  {&quote, &c.Quote},
		"strike": {&strike, &c.StrikePrice},
		"rf":     {&rf, &c.ForeignRate},
		"rd":     {&rd, &c.DomesticRate},
		"vol":    {&vol, &c.Volatility},
	}
	fs.Visit(func(f *flag.Flag) {
		if n, ok := numbers[f.Name]; ok {
			*n.dst = n.src
		}
	})

	contracts := []contract{c}
	asList := false
	if *input != "" {
		var err error
		if contracts, asList, err = readContracts(*input, stdin); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	for i := range contracts {
		if contracts[i].Today == "" {
			contracts[i].Today = civil.DateOf(time.Now()).String()
		}
	}

	var price pricer = priceLocal
	if *remote != "" {
		conn, err := grpcclient.NewClient(grpcclient.ClientConfig{
			Target:         *remote,
			ConnTimeout:    5,
			RequestTimeout: int(timeout.Seconds()),
			MaxRetries:     2,
			RetryDelay:     200,
		})
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer conn.Close()
		price = priceRemote(fxgrpc.NewClient(conn))
	}

	results := make([]output, 0, len(contracts))
	failed := false
	for _, ct := range contracts {
		out := price(ctx, ct)
		failed = failed || out.Error != ""
		results = append(results, out)
	}

	if err := render(stdout, *format, results, asList); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if failed {
		return 1
	}
	return 0
}

// readContracts 读取单个合约对象或合约数组，isList 表示输入是否为数组
func readContracts(path string, stdin io.Reader) (contracts []contract, isList bool, err error) {
	var data []byte
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, false, err
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []contract
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, true, fmt.Errorf("parse %s: %w", path, err)
		}
		if len(list) == 0 {
			return nil, true, errors.New("no contracts in input")
		}
		return list, true, nil
	}

	var single contract
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return []contract{single}, false, nil
}

func priceLocal(_ context.Context, c contract) output {
	out := output{Symbol: c.Symbol, OptionType: c.OptionType}
	fail := func(err error) output {
		out.Error = err.Error()
		out.Code = domain.ErrorCode(err)
		return out
	}

	optionType, err := domain.ParseOptionType(c.OptionType)
	if err != nil {
		return fail(err)
	}
	out.OptionType = string(optionType)

	in := domain.Inputs{Type: optionType}
	numbers := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"quote", c.Quote, &in.Quote},
		{"strike_price", c.StrikePrice, &in.StrikePrice},
		{"foreign_rate", c.ForeignRate, &in.ForeignRate},
		{"domestic_rate", c.DomesticRate, &in.DomesticRate},
		{"volatility", c.Volatility, &in.Volatility},
	}
	for _, n := range numbers {
		if n.src == nil {
			return fail(fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, n.name))
		}
		*n.dst = *n.src
	}
	dates := []struct {
		name     string
		raw      string
		dst      *time.Time
		required bool
	}{
		{"today", c.Today, &in.Today, true},
		{"settlement", c.Settlement, &in.Settlement, false},
		{"maturity", c.Maturity, &in.Maturity, true},
	}
	for _, d := range dates {
		if d.raw == "" {
			if d.required {
				return fail(fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, d.name))
			}
			continue
		}
		date, err := civil.ParseDate(d.raw)
		if err != nil {
			return fail(fmt.Errorf("%w: %s: expected YYYY-MM-DD, got %q", domain.ErrInvalidInput, d.name, d.raw))
		}
		*d.dst = date.In(time.UTC)
	}

	v, err := domain.PriceInputs(in)
	if err != nil {
		return fail(err)
	}
	out.Price = v.Price
	out.TimeToExpiry = v.TimeToExpiry
	return out
}

func priceRemote(client *fxgrpc.Client) pricer {
	return func(ctx context.Context, c contract) output {
		out := output{Symbol: c.Symbol, OptionType: c.OptionType}

		raw, err := json.Marshal(c)
		if err != nil {
			out.Error = err.Error()
			return out
		}
		req := &structpb.Struct{}
		if err := protojson.Unmarshal(raw, req); err != nil {
			out.Error = err.Error()
			return out
		}

		resp, err := client.PriceOption(ctx, req)
		if err != nil {
			out.Error = err.Error()
			return out
		}
		fields := resp.GetFields()
		out.Symbol = fields["symbol"].GetStringValue()
		out.OptionType = fields["option_type"].GetStringValue()
		out.Price = fields["price"].GetNumberValue()
		out.TimeToExpiry = fields["time_to_expiry"].GetNumberValue()
		return out
	}
}

func render(w io.Writer, format string, results []output, asList bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if asList {
			return enc.Encode(results)
		}
		return enc.Encode(results[0])
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SYMBOL\tTYPE\tPRICE\tT\tERROR")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s\t%.10f\t%.6f\t%s\n", r.Symbol, r.OptionType, r.Price, r.TimeToExpiry, r.Error)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
