// Command kannadictl prints budget reports and moves ledger data in and
// out without going through the HTTP server.
package main

func main() {
	Execute()
}
