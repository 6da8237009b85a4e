package pusher

var ResolveDescription = resolveDescription
