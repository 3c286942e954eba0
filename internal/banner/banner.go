package banner

import "fmt"

const Version = "1.0.0"

func Print() {
	banner := `
  ______     __                     __
 /_  __/__  / /__  ____ ___  ___  / /________  __
  / / / _ \/ / _ \/ __ \__ \/ _ \/ __/ ___/ / / /
 / / /  __/ /  __/ / / / / /  __/ /_/ /  / /_/ /
/_/  \___/_/\___/_/ /_/ /_/\___/\__/_/   \__, /
                                        /____/
          v%s - Device Telemetry Rules
    `
	fmt.Printf(banner, Version)
	fmt.Println("\n------------------------------------------------")
}
