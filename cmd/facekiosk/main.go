// Command facekiosk runs a face recognition kiosk: it reads a camera,
// recognizes people against a gallery of known faces and serves a kiosk page
// with the live feed and an identity card.
package main

func main() {
	Execute()
}
