// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/ezrec/uarc/bus"
	"github.com/ezrec/uarc/core"
	"github.com/ezrec/uarc/image"
	"github.com/ezrec/uarc/machine"
	"github.com/ezrec/uarc/translate"
	"github.com/ezrec/uarc/word"
)

var f = translate.From

var ErrNoProgram = errors.New(f("no program: use -c, -i, or -db with -name"))

// Host permission: the most privileged.
var host = bus.Permission{Privilege: 255}

type options struct {
	compile string
	input   string
	output  string
	db      string
	name    string
	memory  int
	save    bool
	list    bool
	verbose bool
}

func main() {
	var opts options
	var width string

	flag.StringVar(&opts.compile, "c", "", ".uarc assembly file to compile")
	flag.StringVar(&opts.input, "i", "", "Program image to load")
	flag.StringVar(&opts.output, "o", "", "Program image to write")
	flag.StringVar(&opts.db, "db", "", "Program image library")
	flag.StringVar(&opts.name, "name", "", "Program image name in the library")
	flag.StringVar(&width, "w", "16", "Word width, in bits (8, 16, 32, 64)")
	flag.IntVar(&opts.memory, "m", 256, "Data memory, in words")
	flag.BoolVar(&opts.save, "s", false, "Save the program image, do not execute")
	flag.BoolVar(&opts.list, "l", false, "List the program image library")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	wordWidth, err := word.ParseWidth(width)
	if err != nil {
		log.Fatalf("-w %v: %v", width, err)
	}

	var store *image.Store
	if len(opts.db) != 0 {
		store, err = image.OpenStore(opts.db)
		if err != nil {
			log.Fatalf("%v: %v", opts.db, err)
		}
		defer store.Close()
	}

	if opts.list {
		if store == nil {
			log.Fatalf("%v: -l requires -db", os.Args[0])
		}
		entries, err := store.List()
		if err != nil {
			log.Fatalf("%v: %v", opts.db, err)
		}
		for _, entry := range entries {
			fmt.Printf("%-16s %-5v %6d %v\n", entry.Name, entry.Width, entry.Size, entry.ID)
		}
		return
	}

	// A loaded image decides the width.
	var img *image.Image
	switch {
	case len(opts.input) != 0:
		inf, err := os.Open(opts.input)
		if err != nil {
			log.Fatalf("%v: %v", opts.input, err)
		}
		img, err = image.Unmarshal(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", opts.input, err)
		}
	case len(opts.compile) == 0 && store != nil && len(opts.name) != 0:
		img, err = store.Get(opts.name)
		if err != nil {
			log.Fatalf("%v: %v: %v", opts.db, opts.name, err)
		}
	}
	if img != nil {
		wordWidth = img.Width
	}

	switch wordWidth {
	case word.WIDTH_8:
		err = run[int8](opts, store, img)
	case word.WIDTH_16:
		err = run[int16](opts, store, img)
	case word.WIDTH_32:
		err = run[int32](opts, store, img)
	case word.WIDTH_64:
		err = run[int64](opts, store, img)
	}

	if err != nil {
		log.Fatal(err)
	}
}

// run assembles or loads a program, and runs it on a single core.
func run[W word.Word](opts options, store *image.Store, img *image.Image) (err error) {
	m := machine.New[W](machine.Config{
		Verbose: opts.verbose,
		Cores:   1,
		Memory:  opts.memory,
		Host:    host,
	})
	defer m.Close()

	var prog *core.Program

	// Compile a new program.
	if len(opts.compile) != 0 {
		inf, err := os.Open(opts.compile)
		if err != nil {
			return err
		}
		defer inf.Close()

		asm := &core.Assembler{Verbose: opts.verbose}
		for key, value := range m.Defines() {
			asm.Predefine(key, value)
		}
		prog, err = asm.Parse(inf)
		if err != nil {
			return fmt.Errorf("%v: %w", opts.compile, err)
		}

		img = image.New[W](prog.Binary(), nil)
	}

	if img == nil {
		return ErrNoProgram
	}

	if opts.verbose {
		log.Printf("uarc: image %v, %v, %d bytes", img.ID(), img.Width, len(img.Program))
	}

	if len(opts.output) != 0 {
		ouf, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		err = img.Marshal(ouf)
		ouf.Close()
		if err != nil {
			return fmt.Errorf("%v: %w", opts.output, err)
		}
	}

	if store != nil && len(opts.name) != 0 && len(opts.compile) != 0 {
		err = store.Put(opts.name, img)
		if err != nil {
			return
		}
	}

	if opts.save {
		return
	}

	data, err := image.Words[W](img)
	if err != nil {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	port := m.Ports[0]
	if len(data) != 0 {
		err = port.Stream(ctx, data)
	}
	if err == nil {
		err = port.Incept(ctx, host, img.Program)
	}
	if err != nil {
		// The core has stopped; report why.
		cancel()
		return errors.Join(err, <-done)
	}

	select {
	case halt := <-m.Halts():
		fmt.Print(halt.State.String())
		err = halt.Err
		var trap *core.Trap
		if prog != nil && errors.As(err, &trap) {
			dbg := prog.Debug(int(trap.Pc))
			if dbg.Line != nil {
				err = fmt.Errorf("%v:%d: %w", opts.compile, dbg.LineNo, err)
			}
		}
	case err = <-done:
	}

	cancel()
	return
}
