package selfupdate

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Download fetches url into dst.
func Download(url, dst string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("download interrupted: %w", err)
	}
	return f.Sync()
}

// VerifyChecksum checks file against a goreleaser-style checksums.txt
// at checksumURL: lines of "<sha256-hex>  <filename>".
func VerifyChecksum(file, checksumURL string) error {
	resp, err := http.Get(checksumURL)
	if err != nil {
		return fmt.Errorf("failed to fetch checksums: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checksum fetch returned status %d", resp.StatusCode)
	}

	want := ""
	base := filepath.Base(file)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 && fields[1] == base {
			want = fields[0]
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read checksums: %w", err)
	}
	if want == "" {
		return fmt.Errorf("no checksum entry for %s", base)
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	got := hex.EncodeToString(h.Sum(nil))

	if got != want {
		return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
	}
	return nil
}

// Install replaces the running binary at currentPath with newBinary,
// keeping a backup for rollback until the new binary answers
// --version.
func Install(currentPath, newBinary string) error {
	backupPath := currentPath + ".backup"

	if err := copyFile(currentPath, backupPath); err != nil {
		return fmt.Errorf("failed to back up current binary: %w", err)
	}

	if err := os.Rename(newBinary, currentPath); err != nil {
		_ = os.Remove(backupPath)
		return fmt.Errorf("failed to install new binary: %w", err)
	}
	if err := os.Chmod(currentPath, 0o755); err != nil {
		_ = rollback(currentPath, backupPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := exec.Command(currentPath, "--version").Run(); err != nil {
		if rbErr := rollback(currentPath, backupPath); rbErr != nil {
			return fmt.Errorf("new binary failed verification and rollback failed: %w", rbErr)
		}
		return fmt.Errorf("new binary failed verification, previous version restored: %w", err)
	}

	_ = os.Remove(backupPath)
	return nil
}

func rollback(currentPath, backupPath string) error {
	if err := os.Rename(backupPath, currentPath); err != nil {
		return err
	}
	return os.Chmod(currentPath, 0o755)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return out.Sync()
}
