package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/fileop/internal/controller"
	"github.com/bamsammich/fileop/internal/filter"
	"github.com/bamsammich/fileop/internal/op"
)

// opFlags are the request options shared by the operation subcommands.
type opFlags struct {
	overwrite  bool
	verify     bool
	bwLimitStr string
	rules      []string
	filterFile string
}

// register adds the flags. Transfer flags only apply to cp, mv and dup.
func (o *opFlags) register(fs *pflag.FlagSet, transfer bool) {
	if transfer {
		fs.BoolVarP(&o.overwrite, "force", "f", false, "overwrite existing files without asking")
		fs.BoolVar(&o.verify, "verify", false, "verify checksums after copy (BLAKE3)")
		fs.StringVar(&o.bwLimitStr, "bwlimit", "", "bandwidth limit per second (e.g. 10MiB, 500k)")
	}
	fs.Var(&filterFlag{rules: &o.rules}, "exclude", "exclude files matching PATTERN (repeatable)")
	fs.Var(&filterFlag{rules: &o.rules, include: true}, "include", "include files matching PATTERN (repeatable)")
	fs.StringVar(&o.filterFile, "filter", "", "read filter rules from FILE")
}

// extras merges flags with config defaults.
func (a *app) extras(cmd *cobra.Command, o *opFlags) (controller.Extras, error) {
	flags := cmd.Flags()
	d := a.cfg.Defaults
	if flags.Lookup("force") != nil && !flags.Changed("force") && d.Overwrite != nil {
		o.overwrite = *d.Overwrite
	}
	if flags.Lookup("verify") != nil && !flags.Changed("verify") && d.Verify != nil {
		o.verify = *d.Verify
	}
	if flags.Lookup("bwlimit") != nil && !flags.Changed("bwlimit") && d.BWLimit != nil {
		o.bwLimitStr = *d.BWLimit
	}

	bw, err := parseBWLimit(o.bwLimitStr)
	if err != nil {
		return controller.Extras{}, fmt.Errorf("invalid --bwlimit: %w", err)
	}

	rules := o.rules
	if o.filterFile != "" {
		fileRules, err := filter.ReadRules(o.filterFile)
		if err != nil {
			return controller.Extras{}, err
		}
		if _, err := filter.Parse(fileRules); err != nil {
			return controller.Extras{}, fmt.Errorf("filter file %s: %w", o.filterFile, err)
		}
		// File rules come after the command line ones, as with rsync.
		rules = append(rules, fileRules...)
	}

	e := controller.Extras{
		Overwrite:  o.overwrite,
		Verify:     o.verify,
		BWLimit:    bw,
		Exclude:    rules,
		GraceDelay: a.cfg.GraceDelay(),
	}
	if w := a.cfg.Worker; w.BufferBlocks != nil {
		e.BufferBlocks = *w.BufferBlocks
	}
	if w := a.cfg.Worker; w.PathWidth != nil {
		e.PathWidth = *w.PathWidth
	}
	return e, nil
}

func (a *app) copyCmd() *cobra.Command {
	var o opFlags
	cmd := &cobra.Command{
		Use:   "cp [flags] <source>... <destination>",
		Short: "Copy files and directories into a destination directory",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			extras, err := a.extras(cmd, &o)
			if err != nil {
				return err
			}
			sources, dst := args[:len(args)-1], args[len(args)-1]
			return a.execute(op.Copy, func(p controller.Presenter, opts controller.Options) (*controller.Handle, error) {
				return controller.Copy(a.workDir, sources, dst, p, opts, extras)
			})
		},
	}
	o.register(cmd.Flags(), true)
	return cmd
}

func (a *app) moveCmd() *cobra.Command {
	var o opFlags
	cmd := &cobra.Command{
		Use:   "mv [flags] <source>... <destination>",
		Short: "Move files and directories into a destination directory",
		Long: `Move renames each source into the destination directory. Across
filesystems, or when merging into an existing directory, it copies and
then removes the source.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			extras, err := a.extras(cmd, &o)
			if err != nil {
				return err
			}
			sources, dst := args[:len(args)-1], args[len(args)-1]
			return a.execute(op.Move, func(p controller.Presenter, opts controller.Options) (*controller.Handle, error) {
				return controller.Move(a.workDir, sources, dst, p, opts, extras)
			})
		},
	}
	o.register(cmd.Flags(), true)
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	var o opFlags
	cmd := &cobra.Command{
		Use:   "rm [flags] <path>...",
		Short: "Delete files and directory trees",
		Long: `Delete removes each path recursively. Excluded entries are kept,
along with the directories that contain them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extras, err := a.extras(cmd, &o)
			if err != nil {
				return err
			}
			return a.execute(op.Delete, func(p controller.Presenter, opts controller.Options) (*controller.Handle, error) {
				return controller.Delete(a.workDir, args, p, opts, extras)
			})
		},
	}
	o.register(cmd.Flags(), false)
	return cmd
}

func (a *app) chattrCmd() *cobra.Command {
	var (
		o         opFlags
		owner     string
		recursive bool
		attrs     = controller.Attributes{FileMask: 0o7777, DirMask: 0o7777}
	)
	cmd := &cobra.Command{
		Use:   "chattr [flags] <path>...",
		Short: "Change owner and permissions of files and directories",
		Long: `Chattr changes ownership and permission bits. --mode applies to
files and --dir-mode to directories; each mask selects which bits change,
so --mode 0644 --mask 0022 only touches group and other write.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs.UID, attrs.GID = op.KeepID, op.KeepID
			if owner != "" {
				uid, gid, err := parseOwner(owner)
				if err != nil {
					return fmt.Errorf("invalid --owner: %w", err)
				}
				attrs.UID, attrs.GID = uid, gid
				attrs.Flags |= op.ChangeOwner
			}
			if cmd.Flags().Changed("mode") {
				attrs.Flags |= op.ChangeFileMode
			}
			if cmd.Flags().Changed("dir-mode") {
				attrs.Flags |= op.ChangeDirMode
			}
			if recursive {
				attrs.Flags |= op.Recurse
			}
			if attrs.Flags&(op.ChangeOwner|op.ChangeFileMode|op.ChangeDirMode) == 0 {
				return op.ErrNoAttributeChanges
			}

			extras, err := a.extras(cmd, &o)
			if err != nil {
				return err
			}
			return a.execute(op.SetAttributes, func(p controller.Presenter, opts controller.Options) (*controller.Handle, error) {
				return controller.SetAttributes(a.workDir, args, attrs, p, opts, extras)
			})
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&owner, "owner", "", "new owner as USER[:GROUP], names or numeric ids")
	fs.Var(&modeFlag{val: &attrs.FileMode}, "mode", "permission bits for files (octal)")
	fs.Var(&modeFlag{val: &attrs.FileMask}, "mask", "file mode bits to change (octal)")
	fs.Var(&modeFlag{val: &attrs.DirMode}, "dir-mode", "permission bits for directories (octal)")
	fs.Var(&modeFlag{val: &attrs.DirMask}, "dir-mask", "directory mode bits to change (octal)")
	fs.BoolVarP(&recursive, "recursive", "R", false, "descend into directories")
	o.register(fs, false)
	return cmd
}

func (a *app) dupCmd() *cobra.Command {
	var (
		o      opFlags
		suffix string
	)
	cmd := &cobra.Command{
		Use:   "dup [flags] <path>...",
		Short: "Duplicate files and directories next to themselves",
		Long: `Dup copies each path beside itself under a free name: the name
plus the suffix, then the name plus the suffix and a counter.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extras, err := a.extras(cmd, &o)
			if err != nil {
				return err
			}
			return a.execute(op.Copy, func(p controller.Presenter, opts controller.Options) (*controller.Handle, error) {
				return controller.Duplicate(a.workDir, args, suffix, p, opts, extras)
			})
		},
	}
	cmd.Flags().StringVar(&suffix, "suffix", controller.DefaultDupSuffix, "suffix for duplicate names")
	o.register(cmd.Flags(), true)
	return cmd
}
