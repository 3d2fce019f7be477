// Command stockctl es el cliente de línea de comandos de la API del ledger de stock.
//
//	stockctl [--api-url URL] [--token JWT] <comando> [flags]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
)

const defaultAPIURL = "http://localhost:8080/api"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

func run(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	global := pflag.NewFlagSet("stockctl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(stderr)
	apiURL := global.String("api-url", firstNonEmpty(getenv("STOCK_API_URL"), defaultAPIURL), "URL base de la API (STOCK_API_URL)")
	tok := global.String("token", getenv("STOCK_API_TOKEN"), "Bearer token para rutas de escritura (STOCK_API_TOKEN)")
	timeout := global.Duration("timeout", 5*time.Second, "timeout por petición")
	global.Usage = func() { usage(stderr, global) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	rest := global.Args()
	if len(rest) == 0 {
		usage(stderr, global)
		return 2
	}

	for _, cmd := range commands() {
		if cmd.name != rest[0] {
			continue
		}
		e := &env{
			client: newAPIClient(*apiURL, *tok, *timeout),
			out:    stdout,
			getenv: getenv,
		}
		if err := cmd.run(e, rest[1:]); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				return 0
			}
			fmt.Fprintf(stderr, "error en %s: %v\n", cmd.name, err)
			if errors.Is(err, errUsage) {
				return 2
			}
			return 1
		}
		return 0
	}
	fmt.Fprintf(stderr, "comando desconocido: %s\n", rest[0])
	usage(stderr, global)
	return 2
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "uso: stockctl [flags globales] <comando> [flags]")
	fmt.Fprintln(w, "\ncomandos:")
	for _, c := range commands() {
		fmt.Fprintf(w, "  %-12s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(w, "\nflags globales:")
	fmt.Fprint(w, fs.FlagUsages())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
