package wallpaper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/archcrafter/loom/internal/cache"
	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/sysexec"
)

// AskpassCandidates are tried in order when SUDO_ASKPASS is unset or unusable.
var AskpassCandidates = []string{
	"/usr/bin/ssh-askpass",
	"/usr/lib/ssh/ssh-askpass",
	"/usr/bin/ksshaskpass",
	"/usr/bin/lxqt-openssh-askpass",
	"/usr/bin/gnome-ssh-askpass",
}

var fillFlags = map[string]string{
	FillZoom:     "--set-zoom-fill",
	FillCentered: "--set-centered",
	FillScaled:   "--set-scaled",
	FillTiled:    "--set-tiled",
	FillAuto:     "--set-auto",
}

// Current returns the last applied wallpaper, falling back to nitrogen's
// saved configuration. Empty when unknown.
func (s *Service) Current() string {
	if p := s.section.String(keyLastApplied, ""); p != "" {
		return p
	}
	return readNitrogenFile(s.nitrogenCfg)
}

// readNitrogenFile returns the first file= entry of a bg-saved.cfg.
func readNitrogenFile(path string) string {
	if path == "" {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if v, ok := strings.CutPrefix(line, "file="); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Apply sets path as the wallpaper with nitrogen using the stored fill mode
// and remembers it as last applied.
func (s *Service) Apply(ctx context.Context, path string) (model.Result, error) {
	path = config.ExpandPath(path)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return model.Result{}, fmt.Errorf("wallpaper file not found: %w", ErrNotFound)
	}
	if _, err := s.runner.LookPath("nitrogen"); err != nil {
		return model.Result{}, &sysexec.ToolError{Tool: "nitrogen", Err: sysexec.ErrToolMissing}
	}

	previous := s.Current()
	flag := fillFlags[s.FillMode()]
	if _, err := s.runner.Run(ctx, "nitrogen", flag, path, "--save"); err != nil {
		return model.Result{}, fmt.Errorf("failed to run nitrogen: %w", err)
	}

	s.section.Set(keyLastApplied, path)
	if err := s.save(); err != nil {
		return model.Result{}, err
	}

	s.logger.Info("applied wallpaper", "path", path, "fill", s.FillMode())
	return model.Result{
		Kind:     model.KindWallpaper,
		Value:    path,
		Previous: previous,
		Message:  "Applied: " + filepath.Base(path),
	}, nil
}

// isSystemWallpaper reports whether path lives under a system wallpaper dir.
func (s *Service) isSystemWallpaper(path string) bool {
	target := cache.ResolvePath(path)
	for _, base := range s.systemDirs {
		root := cache.ResolvePath(base)
		if target == root || strings.HasPrefix(target, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode().Perm()&0111 != 0
}

// resolveAskpass returns a usable askpass helper, preferring $SUDO_ASKPASS.
func (s *Service) resolveAskpass() string {
	if configured := strings.TrimSpace(s.getenv("SUDO_ASKPASS")); configured != "" && isExecutable(configured) {
		return configured
	}
	for _, candidate := range s.askpassCandidates {
		if isExecutable(candidate) {
			return candidate
		}
	}
	return ""
}

// Delete removes a wallpaper file. When the current user may not remove it
// (or it is a system wallpaper) the removal is retried through sudo with a
// graphical askpass helper.
func (s *Service) Delete(ctx context.Context, path string) (model.Result, error) {
	wp := config.ExpandPath(path)
	info, err := os.Stat(wp)
	if err != nil {
		return model.Result{}, fmt.Errorf("delete failed: file missing: %w", ErrNotFound)
	}
	if info.IsDir() {
		return model.Result{}, fmt.Errorf("delete failed: %w", ErrNotAFile)
	}

	key := nameKey(wp)
	done := func() (model.Result, error) {
		if err := s.names.removeKey(key); err != nil {
			s.logger.Warn("failed to clear display name", "path", wp, "error", err)
		}
		return model.Result{Kind: model.KindWallpaper, Value: wp, Message: "Deleted: " + filepath.Base(wp)}, nil
	}

	err = os.Remove(wp)
	if err == nil {
		return done()
	}
	if !errors.Is(err, fs.ErrPermission) && !s.isSystemWallpaper(wp) {
		return model.Result{}, fmt.Errorf("delete failed: %w", err)
	}

	if _, err := s.runner.LookPath("sudo"); err != nil {
		return model.Result{}, errors.New("delete failed: sudo is not installed")
	}
	askpass := s.resolveAskpass()
	if askpass == "" {
		return model.Result{}, errors.New("delete failed: askpass helper not found, set SUDO_ASKPASS")
	}

	_, err = s.runner.RunEnv(ctx, []string{"SUDO_ASKPASS=" + askpass}, "sudo", "-A", "-k", "rm", "-f", "--", wp)
	if err != nil {
		detail := sysexec.Output(err)
		if detail == "" {
			detail = "sudo rm failed"
		}
		return model.Result{}, fmt.Errorf("delete failed: %s", detail)
	}

	if _, err := os.Stat(wp); err == nil {
		return model.Result{}, errors.New("delete failed: file still exists after sudo rm")
	}
	return done()
}
