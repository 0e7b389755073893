package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const bannerWidth = 36

// printBanner draws the startup box with the address the server listens on.
func printBanner(w io.Writer, version, url string) {
	check := color.New(color.FgGreen, color.Bold).Sprint("✓")
	address := color.New(color.FgCyan).Sprint(url)
	rows := []string{
		" Go webserver v." + version,
		" Address: " + url,
		" Status: ✓",
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌"+strings.Repeat("─", bannerWidth)+"┐")
	for _, r := range rows {
		// pad before colouring, escape codes would count towards the width
		padded := fmt.Sprintf("%-*s", bannerWidth, r)
		padded = strings.Replace(padded, "✓", check, 1)
		padded = strings.Replace(padded, url, address, 1)
		fmt.Fprintln(w, "│"+padded+"│")
	}
	fmt.Fprintln(w, "└"+strings.Repeat("─", bannerWidth)+"┘")
	fmt.Fprintln(w)
}
