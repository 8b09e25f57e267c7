package main

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/eringen/portalengine/scaffold"
)

// projectData feeds the scaffold templates. ModuleName may be a full
// module path; ProjectName is its last segment and names the directory.
type projectData struct {
	ProjectName string
	ModuleName  string
	SiteName    string
}

func runNew(name string) error {
	dir := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		dir = name[i+1:]
	}
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	data := projectData{
		ProjectName: dir,
		ModuleName:  name,
		SiteName:    siteNameFor(dir),
	}

	fmt.Printf("Creating new portalengine project: %s\n\n", dir)
	if err := renderScaffold(dir, data); err != nil {
		return err
	}
	tidyModule(dir)

	fmt.Println()
	fmt.Println("Project ready. Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", dir)
	fmt.Println("  go run .")
	fmt.Println()
	fmt.Println("The admin editor lives at /admin once the server is up.")
	fmt.Println("Set PORTAL_ADMIN_PASSWORD and PORTAL_SESSION_SECRET in .env for production.")
	return nil
}

// renderScaffold materializes every embedded template under dir.
func renderScaffold(dir string, data projectData) error {
	const root = "templates"
	return fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		target := outputPath(dir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := renderTemplate(path, target, data); err != nil {
			return err
		}
		fmt.Printf("  created %s\n", target)
		return nil
	})
}

// outputPath maps a template-relative path onto the project tree.
// The .tmpl suffix is dropped; the scaffold carries no dotfiles, so
// the dotenv template lands as .env.example.
func outputPath(dir, rel string) string {
	out := strings.TrimSuffix(filepath.Join(dir, rel), ".tmpl")
	if filepath.Base(out) == "dotenv" {
		out = filepath.Join(filepath.Dir(out), ".env.example")
	}
	return out
}

func renderTemplate(src, dst string, data projectData) error {
	raw, err := scaffold.Templates.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	tmpl, err := template.New(filepath.Base(src)).Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parse template %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer f.Close()
	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("execute template %s: %w", src, err)
	}
	return nil
}

// tidyModule resolves the fresh project's dependencies. A failure is
// reported but does not abort: the tree is complete and the user can
// rerun tidy once the cause (usually a proxy issue) is fixed.
func tidyModule(dir string) {
	fmt.Println("\nFetching Go module dependencies...")
	tidy := exec.Command("go", "mod", "tidy")
	tidy.Dir = dir
	tidy.Stdout = os.Stdout
	tidy.Stderr = os.Stderr
	if err := tidy.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "\nWarning: could not tidy the module: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'cd %s && go mod tidy' manually after fixing.\n", dir)
	}
}

// siteNameFor turns a project directory name into a display name,
// e.g. "team-portal" -> "Team Portal".
func siteNameFor(dir string) string {
	words := strings.Fields(strings.ReplaceAll(dir, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
