package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	appuser "github.com/xiebiao/devcommunity/internal/application/user"
	"github.com/xiebiao/devcommunity/internal/domain/user"
	apperrors "github.com/xiebiao/devcommunity/pkg/errors"
	"github.com/xiebiao/devcommunity/pkg/mq"
)

// 退出码
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage 参数错误，帮助信息已经输出
var errUsage = errors.New("usage error")

// eventConsumer 事件消费者（mq.Consumer）
type eventConsumer interface {
	Queue() string
	Consume(ctx context.Context, handler mq.Handler) error
	Close() error
}

// consumerFactory 按队列名创建消费者，未启用RabbitMQ时为nil
type consumerFactory func(queue string) (eventConsumer, error)

// App 命令行应用，每个子命令对应一个用例
type App struct {
	register  *appuser.RegisterUseCase
	delete    *appuser.DeleteUseCase
	query     *appuser.QueryUseCase
	verify    *appuser.VerifyCredentialsUseCase
	consumers consumerFactory
	log       logrus.FieldLogger
}

// NewApp 组装命令行应用
func NewApp(
	register *appuser.RegisterUseCase,
	del *appuser.DeleteUseCase,
	query *appuser.QueryUseCase,
	verify *appuser.VerifyCredentialsUseCase,
	consumers consumerFactory,
	log logrus.FieldLogger,
) *App {
	return &App{
		register:  register,
		delete:    del,
		query:     query,
		verify:    verify,
		consumers: consumers,
		log:       log,
	}
}

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string, out, errOut io.Writer) error
}

var commands = map[string]command{
	"create": {"创建用户", (*App).runCreate},
	"list":   {"列出全部用户", (*App).runList},
	"get":    {"按--id或--email查询用户", (*App).runGet},
	"delete": {"删除用户", (*App).runDelete},
	"verify": {"校验邮箱和密码", (*App).runVerify},
	"events": {"打印用户事件（需要启用RabbitMQ）", (*App).runEvents},
}

// Run 执行子命令，返回进程退出码
// 领域错误只输出对外文案，其余错误输出完整信息。
func (a *App) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return exitUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(errOut, "未知命令: %s\n", args[0])
		printUsage(errOut)
		return exitUsage
	}

	err := cmd.run(a, ctx, args[1:], out, errOut)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	case apperrors.IsValidation(err), apperrors.IsConflict(err), apperrors.IsNotFound(err):
		fmt.Fprintln(errOut, apperrors.Message(err))
	default:
		fmt.Fprintf(errOut, "错误: %v\n", err)
	}
	return exitError
}

func (a *App) runCreate(ctx context.Context, args []string, out, errOut io.Writer) error {
	var req appuser.RegisterRequest
	fs := newFlagSet("create", errOut)
	fs.StringVar(&req.Name, "name", "", "姓名")
	fs.StringVar(&req.DateOfBirth, "dob", "", "出生日期（YYYY-MM-DD）")
	fs.StringVar(&req.Email, "email", "", "邮箱")
	fs.StringVar(&req.Gender, "gender", "", "性别（MALE | FEMALE | OTHER）")
	fs.StringVar(&req.MainLanguage, "language", "", "主要编程语言")
	fs.IntVar(&req.YearsOfExperience, "years", 0, "工作年限")
	fs.StringVar(&req.Password, "password", "", "密码")
	if err := parse(fs, args, errOut); err != nil {
		return err
	}

	resp, err := a.register.Execute(ctx, req)
	if err != nil {
		return err
	}
	return writeJSON(out, resp.User)
}

func (a *App) runList(ctx context.Context, args []string, out, errOut io.Writer) error {
	if err := parse(newFlagSet("list", errOut), args, errOut); err != nil {
		return err
	}

	users, err := a.query.List(ctx)
	if err != nil {
		return err
	}
	return writeJSON(out, users)
}

func (a *App) runGet(ctx context.Context, args []string, out, errOut io.Writer) error {
	var id, email string
	fs := newFlagSet("get", errOut)
	fs.StringVar(&id, "id", "", "用户ID")
	fs.StringVar(&email, "email", "", "邮箱")
	if err := parse(fs, args, errOut); err != nil {
		return err
	}
	if (id == "") == (email == "") {
		fmt.Fprintln(errOut, "必须且只能指定--id或--email其中之一")
		return errUsage
	}

	var (
		info *appuser.UserInfo
		err  error
	)
	if id != "" {
		info, err = a.query.GetByID(ctx, id)
	} else {
		info, err = a.query.GetByEmail(ctx, email)
	}
	if err != nil {
		return err
	}
	if info == nil {
		return user.ErrUserNotFound
	}
	return writeJSON(out, info)
}

func (a *App) runDelete(ctx context.Context, args []string, out, errOut io.Writer) error {
	var id string
	fs := newFlagSet("delete", errOut)
	fs.StringVar(&id, "id", "", "用户ID")
	if err := parse(fs, args, errOut); err != nil {
		return err
	}
	if id == "" {
		fmt.Fprintln(errOut, "缺少--id")
		return errUsage
	}

	if _, err := a.delete.Execute(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(out, "deleted")
	return nil
}

func (a *App) runVerify(ctx context.Context, args []string, out, errOut io.Writer) error {
	var req appuser.VerifyCredentialsRequest
	fs := newFlagSet("verify", errOut)
	fs.StringVar(&req.Email, "email", "", "邮箱")
	fs.StringVar(&req.Password, "password", "", "密码")
	if err := parse(fs, args, errOut); err != nil {
		return err
	}

	valid, err := a.verify.Execute(ctx, req)
	if err != nil {
		return err
	}
	if valid {
		fmt.Fprintln(out, "valid")
	} else {
		fmt.Fprintln(out, "invalid")
	}
	return nil
}

// runEvents 订阅user.created和user.deleted，每条事件输出一行
// 直到ctx取消，或者收到--count条后退出。
func (a *App) runEvents(ctx context.Context, args []string, out, errOut io.Writer) error {
	var (
		queue string
		count int
	)
	fs := newFlagSet("events", errOut)
	fs.StringVar(&queue, "queue", "", "队列名，为空时使用临时队列")
	fs.IntVar(&count, "count", 0, "收到指定条数后退出，0表示一直运行")
	if err := parse(fs, args, errOut); err != nil {
		return err
	}
	if a.consumers == nil {
		return errors.New("未启用RabbitMQ（rabbitmq.enabled=false）")
	}

	consumer, err := a.consumers(queue)
	if err != nil {
		return err
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			a.log.WithError(err).Warn("关闭消费者失败")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.log.WithField("queue", consumer.Queue()).Info("开始接收用户事件")
	received := 0
	return consumer.Consume(ctx, func(_ context.Context, routingKey string, body []byte) error {
		if _, err := fmt.Fprintf(out, "%s %s\n", routingKey, body); err != nil {
			return err
		}
		received++
		if count > 0 && received >= count {
			cancel()
		}
		return nil
	})
}

func newFlagSet(name string, errOut io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

func parse(fs *pflag.FlagSet, args []string, errOut io.Writer) error {
	if err := fs.Parse(args); err != nil {
		// ContinueOnError模式下pflag只返回错误不打印
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(errOut, err)
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(errOut, "多余的参数: %s\n", strings.Join(fs.Args(), " "))
		return errUsage
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "用法: userctl [--config path] <command> [flags]")
	fmt.Fprintln(w, "\n命令:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].usage)
	}
}
