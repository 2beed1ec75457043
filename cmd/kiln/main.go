package main

import "os"

func main() {
	os.Exit(Execute(os.Args[1:], streams{
		out:     os.Stdout,
		err:     os.Stderr,
		environ: os.Environ(),
	}))
}
