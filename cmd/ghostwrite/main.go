package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
)

func main() {
	server := flag.String("server", "http://localhost:3310", "Ghostwriter server URL")
	site := flag.String("site", "cli", "Site identifier for cache and preferences")
	flag.Parse()

	fmt.Println("Ghostwriter CLI")
	fmt.Printf("Server: %s | Site: %s\n", *server, *site)
	fmt.Println("Type text and press Enter to request a continuation.")
	fmt.Println("Commands: /policy, /providers, exit")
	fmt.Println("---")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Bye!")
			return
		}
		if input == "/policy" {
			fetchJSON(*server + "/api/policy")
			continue
		}
		if input == "/providers" {
			fetchJSON(*server + "/api/providers")
			continue
		}

		complete(*server, *site, input)
	}
}

func complete(server, site, text string) {
	body, _ := json.Marshal(map[string]interface{}{
		"site":          site,
		"before_cursor": text,
		"trigger":       "manual",
	})
	resp, err := http.Post(server+"/api/completions", "application/json", bytes.NewReader(body))
	if err != nil {
		printError("Request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		fmt.Println("(rejected)")
		return
	}

	var result struct {
		Status  string `json:"status"`
		Text    string `json:"text"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		printError("Failed to parse response: %v", err)
		return
	}

	switch result.Status {
	case "ready":
		fmt.Printf("%s\033[2m%s\033[0m\n", text, result.Text)
	case "low-confidence":
		fmt.Printf("%s\033[2m%s\033[0m (low confidence)\n", text, result.Text)
	case "no-suggestion":
		fmt.Println("(no suggestion)")
	default:
		fmt.Printf("[%s] %s\n", result.Status, result.Message)
	}
}

func fetchJSON(url string) {
	resp, err := http.Get(url)
	if err != nil {
		printError("Request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	var v interface{}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		printError("Failed to parse response: %v", err)
		return
	}
	pretty, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(pretty))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
