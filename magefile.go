//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary  = "collector"
	mainPkg = "./cmd/collector"
	reports = "./reports"
)

// Default 默认任务：显示帮助信息
func Default() {
	fmt.Println("A股数据采集服务 构建系统")
	fmt.Println("========================")
	fmt.Println("可用任务:")
	fmt.Println("  mage build     - 构建 collector 二进制文件")
	fmt.Println("  mage test      - 运行所有测试")
	fmt.Println("  mage generate  - 重新生成 gomock 桩代码")
	fmt.Println("  mage dryRun    - 以 dry-run 模式执行一个采集周期")
	fmt.Println("  mage lint      - 运行代码检查")
	fmt.Println("  mage coverage  - 生成测试覆盖率报告")
	fmt.Println("  mage clean     - 清理构建产物")
}

// Build 构建 collector
func Build() error {
	mg.Deps(Clean)

	output := filepath.Join("./dist", binary)
	if runtime.GOOS == "windows" {
		output += ".exe"
	}

	fmt.Printf("📦 构建 %s...\n", binary)
	cmd := exec.Command("go", "build", "-trimpath", "-o", output, mainPkg)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("构建 %s 失败: %v\n输出: %s", binary, err, string(out))
	}

	if info, err := os.Stat(output); err == nil {
		fmt.Printf("   ✅ %s: %d MB\n", binary, info.Size()/1024/1024)
	}
	return nil
}

// Test 运行所有测试
func Test() error {
	fmt.Println("🧪 运行测试...")
	return sh.RunV("go", "test", "./...", "-timeout=5m")
}

// Generate 重新生成 gomock 桩代码
func Generate() error {
	fmt.Println("🛠️  生成 mock...")
	return sh.RunV("go", "generate", "./pkg/...")
}

// DryRun 使用示例股票执行一个周期，不写入远端存储
func DryRun() error {
	return sh.RunV("go", "run", mainPkg, "--once", "--dry-run", "--symbols", "600000,000001", "--log-level", "debug")
}

// Lint 检查代码格式与 go vet
func Lint() error {
	fmt.Println("🔍 运行代码检查...")

	out, err := sh.Output("gofmt", "-l", "cmd", "pkg")
	if err != nil {
		return fmt.Errorf("gofmt 检查失败: %v", err)
	}
	if out != "" {
		return fmt.Errorf("以下文件需要格式化:\n%s", out)
	}

	return sh.RunV("go", "vet", "./...")
}

// Coverage 生成测试覆盖率报告
func Coverage() error {
	fmt.Println("📈 生成测试覆盖率报告...")

	if err := os.MkdirAll(reports, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %v", err)
	}

	profile := filepath.Join(reports, "coverage.out")
	if err := sh.RunV("go", "test", "./...", "-coverprofile="+profile, "-covermode=atomic"); err != nil {
		return fmt.Errorf("生成覆盖率失败: %v", err)
	}
	if err := sh.Run("go", "tool", "cover", "-html="+profile, "-o", filepath.Join(reports, "coverage.html")); err != nil {
		return fmt.Errorf("生成HTML报告失败: %v", err)
	}
	return sh.RunV("go", "tool", "cover", "-func="+profile)
}

// Clean 清理构建产物
func Clean() error {
	fmt.Println("🧹 清理构建产物...")

	if err := os.RemoveAll("./dist"); err != nil {
		return fmt.Errorf("清理 dist 失败: %v", err)
	}
	if err := os.MkdirAll("./dist", 0755); err != nil {
		return fmt.Errorf("创建 dist 目录失败: %v", err)
	}
	return os.RemoveAll(reports)
}
