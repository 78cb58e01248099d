// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

var helpvar bool
var basevar string
var outvar string

const usage = "gochip8-disasm [-base 0x###] [-o outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.StringVar(
		&basevar, "base", "0x200",
		"Specifies the address the ROM image is assumed to be loaded at, "+
			"used for the printed addresses and branch targets",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a file to write the listing to instead of stdout",
	)
	flag.Parse()
}

func gochip8_disasm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var input io.Reader

	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m")
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else {
			if stat.IsDir() {
				log.Printf("%s is not a valid CHIP-8 ROM", filename)
				return 1
			}
		}

		input = file
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m", filename))
	}

	base, err := encoding.DecodeHex(basevar)

	if err != nil {
		log.Println(err)
		return 1
	}

	image, err := io.ReadAll(input)

	if err != nil {
		log.Println(err)
		return 1
	}

	if len(image) > machine.MaxProgramSize {
		log.Printf(
			"ROM is %d bytes, larger than the %d byte program area",
			len(image),
			machine.MaxProgramSize,
		)
		return 1
	}

	lines := disasm.Disassemble(image, base)

	var output io.Writer = os.Stdout

	if outvar != "" {
		file, err := os.Create(outvar)

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()
		output = file
	}

	if err := disasm.Print(output, lines); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(gochip8_disasm())
}
