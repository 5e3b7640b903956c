package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// Launcher opens a video file in an external player. The grid only previews
// thumbnails; playback is always handed off.
type Launcher struct {
	command string   // configured player command, empty for auto-detection
	args    []string // additional arguments for the player
	logger  *slog.Logger
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"mpv", "vlc"},
	"linux":   {"mpv", "celluloid", "haruna", "vlc"},
	"windows": {"vlc", "mpv"},
}

// macOS app bundles tried via "open -a" when no CLI binary is on PATH
var macAppNames = []string{"IINA", "VLC"}

// NewLauncher creates a launcher. An empty command selects auto-detection.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{command: command, args: args, logger: logger}
}

// Play opens path in the configured or auto-detected player. The player
// process is started asynchronously; playback errors after launch are the
// player's problem, not ours.
func (l *Launcher) Play(path string) error {
	if l.command != "" {
		if err := launchCommand(l.command, l.args, path); err != nil {
			return fmt.Errorf("failed to launch %s: %w", l.command, err)
		}
		l.logger.Info("playback started", "player", l.command, "path", path)
		return nil
	}

	player, err := detectAndLaunch(path, l.args)
	if err != nil {
		return err
	}
	l.logger.Info("playback started", "player", player, "path", path)
	return nil
}

// launchCommand starts a CLI player without waiting for it to exit.
func launchCommand(command string, args []string, path string) error {
	if _, err := exec.LookPath(command); err != nil {
		return err
	}
	return exec.Command(command, append(args, path)...).Start()
}

// detectAndLaunch tries candidate players in order and returns the name of
// the one that launched.
func detectAndLaunch(path string, args []string) (string, error) {
	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"]
	}

	var tried []string
	for _, player := range candidates {
		if err := launchCommand(player, args, path); err == nil {
			return player, nil
		}
		tried = append(tried, player)
	}

	if runtime.GOOS == "darwin" {
		for _, app := range macAppNames {
			if err := exec.Command("open", "-a", app, path).Run(); err == nil {
				return app, nil
			}
			tried = append(tried, app)
		}
	}

	return "", fmt.Errorf("no video player found (tried %s)", strings.Join(tried, ", "))
}
