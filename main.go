package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/ByLCY/folio/config"
	"github.com/ByLCY/folio/document"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

const appName = "folio"

// env 保存命令行解析之后建立的运行环境。
type env struct {
	cfg *config.Config
	log *zap.Logger
}

type envKey struct{}

func envFromContext(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	return &env{log: zap.NewNop()}
}

// initializeAppContext 在命令执行前加载配置并准备日志。
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	e := envFromContext(ctx)

	configFile := cmd.String("config")
	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return ctx, fmt.Errorf("加载配置失败: %w", err)
	}
	e.cfg = cfg
	if e.log, err = cfg.Logging.Prepare(appName); err != nil {
		return ctx, fmt.Errorf("准备日志失败: %w", err)
	}
	e.log.Debug("Program started", zap.Strings("args", os.Args), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		e.log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, _ *cli.Command) error {
	e := envFromContext(ctx)
	if e.log != nil {
		_ = e.log.Sync()
	}
	return nil
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	e := envFromContext(ctx)
	if e.cfg != nil && e.log != nil {
		e.log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.WithValue(context.Background(), envKey{}, &env{log: zap.NewNop()}), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            appName,
		Usage:           "rich text layout engine producing paginated PDF",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "render",
				Usage:  "Lays out a folio document and writes PDF",
				Action: renderAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "in", Value: "examples/demo.folio", Usage: "DSL `FILE` to render"},
					&cli.StringFlag{Name: "out", Usage: "PDF output `FILE` (default: output/<document title>.pdf)"},
					&cli.StringFlag{Name: "debug", Usage: "write layout debug JSON to `FILE`"},
					&cli.StringFlag{Name: "data", Usage: "JSON `DATA` bound to the document"},
					&cli.BoolFlag{Name: "frames", Usage: "outline frames in the PDF"},
				},
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				Action:    outputConfiguration,
				ArgsUsage: "DESTINATION",
			},
		},
	}

	err := app.Run(ctx, os.Args)
	stop()
	if err != nil {
		if !errWasHandled {
			fmt.Fprintf(os.Stderr, "\n*** ERROR ***: %v\n", err)
		}
		os.Exit(1)
	}
}

func renderAction(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	log := e.log.Named("render")

	cfg := e.cfg
	fonts := make([]canvasrenderer.FontFile, 0, len(cfg.Fonts))
	for _, f := range cfg.Fonts {
		fonts = append(fonts, fontFile(f.Family, f.Weight, f.Italic, f.Src))
	}
	input := cmd.String("in")
	r, err := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:     filepath.Dir(input),
		Fonts:       fonts,
		DebugFrames: cfg.Render.DebugFrames || cmd.Bool("frames"),
		Log:         log,
	})
	if err != nil {
		log.Warn("部分字体注册失败", zap.Error(err))
	}

	lctx, err := cfg.LayoutContext()
	if err != nil {
		return err
	}
	lctx.Log = log
	lctx.NewShaper = r.Shaper()

	out, err := run(ctx, input, cmd.String("out"), cmd.String("debug"), []byte(cmd.String("data")), lctx, r)
	if err != nil {
		return fmt.Errorf("生成 PDF 失败: %w", err)
	}
	log.Info("已生成 PDF", zap.String("path", out))
	return nil
}

func fontFile(family, weight string, italic bool, src string) canvasrenderer.FontFile {
	return canvasrenderer.FontFile{
		Family:   family,
		Weight:   weight,
		Italic:   italic,
		Resource: canvasrenderer.Resource{Path: src},
	}
}

// outputName 根据文档标题（缺省为输入文件名）生成输出路径。
func outputName(result *document.Result, inputPath string) string {
	name := result.Meta.Title
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	}
	if name = slug.Make(name); name == "" {
		name = "folio"
	}
	return filepath.Join("output", name+".pdf")
}

// run 串联解析、布局与渲染，返回实际写入的 PDF 路径。
func run(ctx context.Context, inputPath, outputPath, debugPath string, data []byte, lctx layout.Context, r renderer.Renderer) (string, error) {
	if r == nil {
		return "", errors.New("renderer 不能为空")
	}
	file, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("无法打开 DSL 文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return "", fmt.Errorf("解析 DSL 失败: %w", err)
	}

	if reg, ok := r.(*canvasrenderer.Renderer); ok {
		decls, err := document.CollectFonts(doc)
		if err != nil {
			return "", err
		}
		for _, d := range decls {
			if err := reg.Fonts().RegisterFile(fontFile(d.Family, d.Weight, d.Italic, d.Src)); err != nil {
				return "", fmt.Errorf("注册字体 %s 失败: %w", d.Family, err)
			}
		}
	}

	result, err := document.Build(ctx, doc, data, document.Options{
		Context: lctx,
		BaseDir: filepath.Dir(inputPath),
	})
	if err != nil {
		return "", fmt.Errorf("布局计算失败: %w", err)
	}

	if debugPath != "" {
		if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
			return "", fmt.Errorf("创建调试目录失败: %w", err)
		}
		if err := document.WriteDebugJSON(result, debugPath); err != nil {
			return "", fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	if outputPath == "" {
		outputPath = outputName(result, inputPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	pdfBytes, err := r.Render(result)
	if err != nil {
		return "", fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return "", fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return outputPath, nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() > 1 {
		return fmt.Errorf("malformed command line, too many destinations")
	}

	var (
		data []byte
		err  error
	)
	if cmd.Bool("default") {
		data = config.Defaults()
	} else if data, err = config.Dump(envFromContext(ctx).cfg); err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(fname, data, 0644); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
