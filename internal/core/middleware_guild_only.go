package core

import "log"

// WithGuildOnly drops invocations outside of a guild.
func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashInteractionContext); ok && v.Event.GuildID == "" {
					log.Printf("[WARN] /%s used outside of a guild, ignored", cmd.Name())
					return nil
				}
				return cmd.Run(ctx)
			},
		}
	}
}
