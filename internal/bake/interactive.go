package bake

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/faucetdb/fixturebake/internal/config"
	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/fixture"
	"github.com/faucetdb/fixturebake/internal/render"
)

// ErrNoTables is returned by Interactive when the connection has no tables.
var ErrNoTables = errors.New("no tables found")

// defaultPromptCount is offered when asking how many records to bake.
const defaultPromptCount = 10

// Interactive asks for the connection, table, sampling conditions and
// record count on in, then bakes the chosen table.
func (b *Baker) Interactive(ctx context.Context, in io.Reader, opts Options) (*Result, error) {
	p := &prompter{in: bufio.NewReader(in), out: b.out}

	rule := strings.Repeat("-", 60)
	fmt.Fprintln(b.out, rule)
	fmt.Fprintf(b.out, "Bake Fixture\nPath: %s\n", render.Path(b.cfg.Fixtures.Path, opts.Plugin))
	fmt.Fprintln(b.out, rule)

	if opts.Connection == "" {
		names := b.cfg.ConnectionNames()
		switch len(names) {
		case 0:
		case 1:
			opts.Connection = names[0]
		default:
			name, err := p.choose("Use database config", names, config.DefaultConnection)
			if err != nil {
				return nil, err
			}
			opts.Connection = name
		}
	}

	tables, err := b.Tables(ctx, opts.Connection)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("connection %q: %w", opts.connection(), ErrNoTables)
	}
	table, err := p.choose("Possible tables to bake a fixture for", tables, "")
	if err != nil {
		return nil, err
	}
	opts.Table = table

	if opts.Records {
		cond := ""
		for cond == "" {
			cond, err = p.ask("Please provide a SQL fragment to use as conditions\nExample: WHERE 1=1", "WHERE "+connector.DefaultCondition)
			if err != nil {
				return nil, err
			}
		}
		opts.Conditions = cond
		opts.importRecords = true
	}

	if opts.Count == nil {
		question := "How many records do you want to generate?"
		if opts.Records {
			question = "How many records do you want to import?"
		}
		n, err := p.askInt(question, defaultPromptCount)
		if err != nil {
			return nil, err
		}
		opts.Count = &n
	}

	return b.bake(ctx, fixture.ModelName(table), fixture.ModeSingle, opts)
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// ask prints question and returns the trimmed answer, or def for an empty
// answer. EOF without input is an error.
func (p *prompter) ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]\n> ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s\n> ", question)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (p *prompter) askInt(question string, def int) (int, error) {
	for {
		answer, err := p.ask(question, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 0 {
			return n, nil
		}
		color.New(color.FgRed).Fprintf(p.out, "%q is not a valid number\n", answer)
	}
}

// choose lists options and accepts a 1-based index or an exact option.
func (p *prompter) choose(question string, options []string, def string) (string, error) {
	fmt.Fprintln(p.out, question+":")
	for i, opt := range options {
		fmt.Fprintf(p.out, "%2d. %s\n", i+1, opt)
	}
	for {
		answer, err := p.ask("Enter a number from the list above, or type the name", def)
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		for _, opt := range options {
			if opt == answer {
				return opt, nil
			}
		}
		color.New(color.FgRed).Fprintf(p.out, "%q is not a valid choice\n", answer)
	}
}
