// p1plus reads a DSMR P1 port, shows the grid congestion state on an LED
// indicator and serves the live readings over HTTP.
package main

func main() {
	Execute()
}
