// rawconv - утилита для пакетной конвертации raw-архивов в JPEG
// и безопасного удаления сконвертированных исходников.
package main

import "github.com/kwad-pylot/Raw-Image-Converter/internal/cli"

func main() {
	cli.Execute()
}
