// Command stationpin prints the bcrypt hash to put in AUTH_STATION_PIN_HASH.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/EnuliForge/kwikorder-engine/internal/auth"
	"github.com/EnuliForge/kwikorder-engine/internal/config"
)

func main() {
	defaultCost := bcrypt.DefaultCost
	if cfg, err := config.Load(); err == nil && cfg.Auth.BcryptCost > 0 {
		defaultCost = cfg.Auth.BcryptCost
	}

	pin := flag.StringP("pin", "p", "", "station PIN to hash (read from stdin when empty)")
	cost := flag.IntP("cost", "c", defaultCost, "bcrypt cost (defaults to AUTH_BCRYPT_COST)")
	verify := flag.String("verify", "", "check --pin against an existing hash instead of hashing")
	flag.Parse()

	if *pin == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "stationpin: no PIN given")
			os.Exit(2)
		}
		*pin = strings.TrimSpace(line)
	}
	if *pin == "" {
		fmt.Fprintln(os.Stderr, "stationpin: empty PIN")
		os.Exit(2)
	}

	if *verify != "" {
		if err := auth.ComparePassword(*verify, *pin); err != nil {
			fmt.Println("mismatch")
			os.Exit(1)
		}
		fmt.Println("ok")
		return
	}

	hash, err := auth.HashPassword(*pin, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stationpin: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
